package migration

import (
	"time"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
)

// nestedSections are the sub-objects of the current user layout. When a
// legacy document already carries one of them it wins over the defaults.
var nestedSections = []string{
	"profile",
	"auth",
	"account",
	"portfolio",
	"preferences",
	"subscription",
	"metadata",
}

// upgradeLegacyUser maps the flat version 0 layout onto the nested one.
func upgradeLegacyUser(doc repository.Document, now time.Time) (repository.Document, error) {
	created := parseTime(doc["registeredAt"], now)

	rec := domain.NewUserRecord(stringField(doc, "id"), stringField(doc, "email"), created)
	rec.Profile.FirstName = stringField(doc, "firstName")
	rec.Profile.LastName = stringField(doc, "lastName")
	rec.Profile.DisplayName = rec.FullName()
	rec.Profile.Avatar = stringField(doc, "profilePicture")
	rec.Profile.Phone = stringField(doc, "phone")

	// Legacy digests cannot be verified by bcrypt; those users reset their password.
	rec.Auth.PasswordHash = stringField(doc, "password")
	rec.Auth.IsEmailVerified, _ = doc["isEmailVerified"].(bool)
	if v, ok := doc["lastLogin"]; ok && v != nil {
		t := parseTime(v, now)
		rec.Auth.LastLogin = &t
	}

	if v := stringField(doc, "accountType"); v != "" {
		rec.Account.Type = v
	}
	if v := stringField(doc, "tradingExperience"); v != "" {
		rec.Account.TradingExperience = v
	}

	rec.Metadata.UpdatedAt = now
	rec.Metadata.LastActiveAt = now

	token, err := crypto.GenerateToken(16)
	if err != nil {
		return nil, err
	}
	rec.Auth.EmailVerificationToken = token
	code, err := crypto.GenerateReferralCode()
	if err != nil {
		return nil, err
	}
	rec.Metadata.ReferralCode = code

	out, err := repository.EncodeDocument(rec)
	if err != nil {
		return nil, err
	}

	for _, section := range nestedSections {
		existing, ok := doc[section].(map[string]any)
		if !ok {
			continue
		}
		base, _ := out[section].(map[string]any)
		out[section] = domain.MergeDocuments(base, existing)
	}
	return out, nil
}

func stringField(doc repository.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

// parseTime reads an RFC 3339 string, falling back to def.
func parseTime(v any, def time.Time) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return def
	}
	return t.UTC()
}
