// Package domain contains the core business entities for TradeHub.
// These are plain Go structs whose JSON form is the persisted document
// layout of every collection.
package domain

import (
	"strings"
	"time"
)

// CurrentUserSchemaVersion is the layout version written by this build.
// Records without a schemaVersion are version 0 (legacy flat layout).
const CurrentUserSchemaVersion = 1

// Account types.
const (
	AccountTypeBasic        = "basic"
	AccountTypePremium      = "premium"
	AccountTypeProfessional = "professional"
)

// Account tiers.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Account and subscription statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusClosed    = "closed"

	KYCPending  = "pending"
	KYCVerified = "verified"
	KYCRejected = "rejected"

	PlanFree = "free"
)

// Trading experience levels.
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

// UserRecord is the aggregate document for one registered identity.
// Ownership of positions, watchlist and alerts is by embedding.
type UserRecord struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	SchemaVersion int          `json:"schemaVersion"`
	Profile       Profile      `json:"profile"`
	Auth          AuthState    `json:"auth"`
	Account       Account      `json:"account"`
	Portfolio     Portfolio    `json:"portfolio"`
	Preferences   Preferences  `json:"preferences"`
	Subscription  Subscription `json:"subscription"`
	Metadata      UserMetadata `json:"metadata"`
}

// Profile holds name, contact and address details.
type Profile struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DisplayName string     `json:"displayName"`
	Avatar      string     `json:"avatar"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Nationality string     `json:"nationality"`
	Address     Address    `json:"address"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// AuthState holds credential material and login bookkeeping.
type AuthState struct {
	// PasswordHash is the bcrypt hash. It is stripped from sanitized copies.
	PasswordHash           string        `json:"password,omitempty"`
	IsEmailVerified        bool          `json:"isEmailVerified"`
	EmailVerificationToken string        `json:"emailVerificationToken,omitempty"`
	PasswordResetToken     string        `json:"passwordResetToken,omitempty"`
	PasswordResetExpires   *time.Time    `json:"passwordResetExpires"`
	TwoFactorAuth          TwoFactorAuth `json:"twoFactorAuth"`
	LoginAttempts          int           `json:"loginAttempts"`
	LockUntil              *time.Time    `json:"lockUntil"`
	LastLogin              *time.Time    `json:"lastLogin"`
	IPHistory              []string      `json:"ipHistory"`
}

// TwoFactorAuth is stored but never verified by this system.
type TwoFactorAuth struct {
	Enabled     bool     `json:"enabled"`
	Secret      string   `json:"secret,omitempty"`
	BackupCodes []string `json:"backupCodes,omitempty"`
}

// Account is the brokerage classification of the user.
type Account struct {
	Type              string   `json:"type"`
	Status            string   `json:"status"`
	Tier              string   `json:"tier"`
	KYCStatus         string   `json:"kycStatus"`
	KYCDocuments      []string `json:"kycDocuments"`
	TradingExperience string   `json:"tradingExperience"`
	RiskTolerance     string   `json:"riskTolerance"`
	InvestmentGoals   []string `json:"investmentGoals"`
	AnnualIncome      string   `json:"annualIncome"`
	NetWorth          string   `json:"netWorth"`
}

// Preferences holds display, locale and notification settings.
type Preferences struct {
	Theme         string             `json:"theme"`
	Language      string             `json:"language"`
	Timezone      string             `json:"timezone"`
	Currency      string             `json:"currency"`
	Notifications NotificationPrefs  `json:"notifications"`
	Privacy       PrivacyPrefs       `json:"privacy"`
	Trading       TradingPreferences `json:"trading"`
}

// NotificationPrefs toggles delivery channels.
type NotificationPrefs struct {
	Email          bool `json:"email"`
	SMS            bool `json:"sms"`
	Push           bool `json:"push"`
	PriceAlerts    bool `json:"priceAlerts"`
	NewsUpdates    bool `json:"newsUpdates"`
	MarketAnalysis bool `json:"marketAnalysis"`
}

// PrivacyPrefs controls what other users can see.
type PrivacyPrefs struct {
	ProfileVisibility  string `json:"profileVisibility"`
	ShowPortfolio      bool   `json:"showPortfolio"`
	ShowTradingHistory bool   `json:"showTradingHistory"`
}

// TradingPreferences are defaults for the order ticket.
type TradingPreferences struct {
	DefaultOrderType string `json:"defaultOrderType"`
	ConfirmOrders    bool   `json:"confirmOrders"`
	AutoInvest       bool   `json:"autoInvest"`
	RiskWarnings     bool   `json:"riskWarnings"`
}

// Subscription is the billing plan.
type Subscription struct {
	Plan           string         `json:"plan"`
	Status         string         `json:"status"`
	StartDate      *time.Time     `json:"startDate"`
	EndDate        *time.Time     `json:"endDate"`
	AutoRenew      bool           `json:"autoRenew"`
	PaymentMethod  string         `json:"paymentMethod"`
	BillingHistory []BillingEntry `json:"billingHistory"`
}

// BillingEntry is one invoice line.
type BillingEntry struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

// UserMetadata holds audit timestamps and acquisition details.
type UserMetadata struct {
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	Source       string    `json:"source"`
	ReferralCode string    `json:"referralCode"`
	ReferredBy   string    `json:"referredBy"`
	Tags         []string  `json:"tags"`
	Notes        string    `json:"notes"`
}

// NewUserRecord creates a UserRecord with every sub-object at its default.
func NewUserRecord(id, email string, now time.Time) *UserRecord {
	return &UserRecord{
		ID:            id,
		Email:         NormalizeEmail(email),
		SchemaVersion: CurrentUserSchemaVersion,
		Auth: AuthState{
			IPHistory: []string{},
		},
		Account: Account{
			Type:              AccountTypeBasic,
			Status:            StatusActive,
			Tier:              TierBronze,
			KYCStatus:         KYCPending,
			KYCDocuments:      []string{},
			TradingExperience: ExperienceBeginner,
			RiskTolerance:     "medium",
			InvestmentGoals:   []string{},
		},
		Portfolio: Portfolio{
			Currency:  "USD",
			Positions: []Position{},
			Watchlist: []WatchlistItem{},
			Alerts:    []PriceAlert{},
		},
		Preferences: Preferences{
			Theme:    "dark",
			Language: "en",
			Timezone: "UTC",
			Currency: "USD",
			Notifications: NotificationPrefs{
				Email:       true,
				Push:        true,
				PriceAlerts: true,
				NewsUpdates: true,
			},
			Privacy: PrivacyPrefs{
				ProfileVisibility: "private",
			},
			Trading: TradingPreferences{
				DefaultOrderType: "market",
				ConfirmOrders:    true,
				RiskWarnings:     true,
			},
		},
		Subscription: Subscription{
			Plan:           PlanFree,
			Status:         StatusActive,
			StartDate:      &now,
			BillingHistory: []BillingEntry{},
		},
		Metadata: UserMetadata{
			CreatedAt:    now,
			UpdatedAt:    now,
			LastActiveAt: now,
			Source:       "web",
			Tags:         []string{},
		},
	}
}

// NormalizeEmail case-folds and trims an email so it can be compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName returns "First Last".
func (u *UserRecord) FullName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}

// CanAuthenticate returns true if the account status allows sign-in.
func (u *UserRecord) CanAuthenticate() bool {
	return u.Account.Status == "" || u.Account.Status == StatusActive
}

// Sanitized returns a deep copy with credential material removed.
func (u *UserRecord) Sanitized() *UserRecord {
	c := u.Clone()
	c.Auth.PasswordHash = ""
	c.Auth.EmailVerificationToken = ""
	c.Auth.PasswordResetToken = ""
	c.Auth.PasswordResetExpires = nil
	c.Auth.TwoFactorAuth.Secret = ""
	c.Auth.TwoFactorAuth.BackupCodes = nil
	return c
}

// Clone returns a deep copy of the record.
func (u *UserRecord) Clone() *UserRecord {
	c := *u
	c.Profile.DateOfBirth = cloneTime(u.Profile.DateOfBirth)
	c.Auth.PasswordResetExpires = cloneTime(u.Auth.PasswordResetExpires)
	c.Auth.LockUntil = cloneTime(u.Auth.LockUntil)
	c.Auth.LastLogin = cloneTime(u.Auth.LastLogin)
	c.Auth.IPHistory = cloneSlice(u.Auth.IPHistory)
	c.Auth.TwoFactorAuth.BackupCodes = cloneSlice(u.Auth.TwoFactorAuth.BackupCodes)
	c.Account.KYCDocuments = cloneSlice(u.Account.KYCDocuments)
	c.Account.InvestmentGoals = cloneSlice(u.Account.InvestmentGoals)
	c.Portfolio = u.Portfolio.Clone()
	c.Subscription.StartDate = cloneTime(u.Subscription.StartDate)
	c.Subscription.EndDate = cloneTime(u.Subscription.EndDate)
	c.Subscription.BillingHistory = cloneSlice(u.Subscription.BillingHistory)
	c.Metadata.Tags = cloneSlice(u.Metadata.Tags)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
