package domain

import "time"

// Order statuses.
const (
	OrderPending   = "pending"
	OrderFilled    = "filled"
	OrderCancelled = "cancelled"
	OrderRejected  = "rejected"
)

// Order types and sides.
const (
	OrderTypeMarket    = "market"
	OrderTypeLimit     = "limit"
	OrderTypeStop      = "stop"
	OrderTypeStopLimit = "stop_limit"

	SideBuy  = "buy"
	SideSell = "sell"

	TimeInForceDay = "day"
)

// Order is a trade instruction. Orders are recorded, never executed.
type Order struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Symbol         string        `json:"symbol"`
	Type           string        `json:"type"`
	Side           string        `json:"side"`
	Quantity       float64       `json:"quantity"`
	Price          *float64      `json:"price"`
	StopPrice      *float64      `json:"stopPrice"`
	TimeInForce    string        `json:"timeInForce"`
	Status         string        `json:"status"`
	FilledQuantity float64       `json:"filledQuantity"`
	AveragePrice   float64       `json:"averagePrice"`
	Commission     float64       `json:"commission"`
	Fees           float64       `json:"fees"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	FilledAt       *time.Time    `json:"filledAt"`
	CancelledAt    *time.Time    `json:"cancelledAt"`
	Metadata       OrderMetadata `json:"metadata"`
}

// OrderMetadata records where the order came from.
type OrderMetadata struct {
	Source    string `json:"source"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	Notes     string `json:"notes"`
}

// Transaction is a ledger entry (deposit, withdrawal, trade, fee).
type Transaction struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Reference   string     `json:"reference"`
	OrderID     string     `json:"orderId"`
	Symbol      string     `json:"symbol"`
	Quantity    float64    `json:"quantity"`
	Price       float64    `json:"price"`
	Fees        float64    `json:"fees"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt"`
}

// DefaultWatchlistColor is used when a watchlist is created without a color.
const DefaultWatchlistColor = "#007bff"

// Watchlist is a named, user-owned list of symbols kept in its own collection.
type Watchlist struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Symbols     []WatchlistItem `json:"symbols"`
	IsDefault   bool            `json:"isDefault"`
	IsPublic    bool            `json:"isPublic"`
	Color       string          `json:"color"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MarketTick is the latest quote for a symbol.
type MarketTick struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Exchange         string    `json:"exchange"`
	Currency         string    `json:"currency"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePercentage float64   `json:"changePercentage"`
	Volume           float64   `json:"volume"`
	MarketCap        float64   `json:"marketCap"`
	High52Week       float64   `json:"high52Week"`
	Low52Week        float64   `json:"low52Week"`
	PERatio          *float64  `json:"peRatio"`
	DividendYield    *float64  `json:"dividendYield"`
	LastUpdated      time.Time `json:"lastUpdated"`
	IsMarketOpen     bool      `json:"isMarketOpen"`
}

// SystemSetting is a key/value configuration document.
type SystemSetting struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   string    `json:"updatedBy"`
}

// SchemaVersionSettingID is the settings document holding the migration marker.
const SchemaVersionSettingID = "db_version"
