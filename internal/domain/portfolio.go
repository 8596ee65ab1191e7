package domain

import (
	"strings"
	"time"
)

// Position statuses.
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// Portfolio holds monetary totals and the three embedded child collections.
type Portfolio struct {
	TotalValue              float64         `json:"totalValue"`
	AvailableBalance        float64         `json:"availableBalance"`
	InvestedAmount          float64         `json:"investedAmount"`
	TotalGainLoss           float64         `json:"totalGainLoss"`
	TotalGainLossPercentage float64         `json:"totalGainLossPercentage"`
	Currency                string          `json:"currency"`
	Positions               []Position      `json:"positions"`
	Watchlist               []WatchlistItem `json:"watchlist"`
	Alerts                  []PriceAlert    `json:"alerts"`
}

// Position is an open or closed holding embedded in a portfolio.
type Position struct {
	ID                           string           `json:"id"`
	UserID                       string           `json:"userId"`
	Symbol                       string           `json:"symbol"`
	Name                         string           `json:"name"`
	Type                         string           `json:"type"`
	Side                         string           `json:"side"`
	Quantity                     float64          `json:"quantity"`
	AveragePrice                 float64          `json:"averagePrice"`
	CurrentPrice                 float64          `json:"currentPrice"`
	MarketValue                  float64          `json:"marketValue"`
	CostBasis                    float64          `json:"costBasis"`
	UnrealizedGainLoss           float64          `json:"unrealizedGainLoss"`
	UnrealizedGainLossPercentage float64          `json:"unrealizedGainLossPercentage"`
	DayGainLoss                  float64          `json:"dayGainLoss"`
	DayGainLossPercentage        float64          `json:"dayGainLossPercentage"`
	OpenDate                     time.Time        `json:"openDate"`
	LastUpdated                  time.Time        `json:"lastUpdated"`
	Status                       string           `json:"status"`
	Metadata                     PositionMetadata `json:"metadata"`
}

// PositionMetadata describes the instrument.
type PositionMetadata struct {
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Currency string `json:"currency"`
}

// Recalculate derives market value, cost basis and unrealized gain from
// quantity and prices.
func (p *Position) Recalculate() {
	p.MarketValue = p.Quantity * p.CurrentPrice
	p.CostBasis = p.Quantity * p.AveragePrice
	p.UnrealizedGainLoss = p.MarketValue - p.CostBasis
	if p.CostBasis != 0 {
		p.UnrealizedGainLossPercentage = p.UnrealizedGainLoss / p.CostBasis * 100
	} else {
		p.UnrealizedGainLossPercentage = 0
	}
}

// WatchlistItem is a symbol of interest embedded in a portfolio.
type WatchlistItem struct {
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"addedAt"`
	Notes   string    `json:"notes"`
}

// PriceAlert is a price trigger. It is stored both embedded and in the
// alerts collection.
type PriceAlert struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Symbol      string     `json:"symbol"`
	Type        string     `json:"type"`
	Condition   string     `json:"condition"`
	Value       float64    `json:"value"`
	Message     string     `json:"message"`
	IsActive    bool       `json:"isActive"`
	IsTriggered bool       `json:"isTriggered"`
	TriggeredAt *time.Time `json:"triggeredAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Clone returns a deep copy of the portfolio.
func (p Portfolio) Clone() Portfolio {
	c := p
	c.Positions = cloneSlice(p.Positions)
	c.Watchlist = cloneSlice(p.Watchlist)
	c.Alerts = cloneSlice(p.Alerts)
	for i := range c.Alerts {
		c.Alerts[i].TriggeredAt = cloneTime(p.Alerts[i].TriggeredAt)
	}
	return c
}

// FindPosition returns the index of the position with the given id, or -1.
func (p Portfolio) FindPosition(id string) int {
	for i := range p.Positions {
		if p.Positions[i].ID == id {
			return i
		}
	}
	return -1
}

// HasSymbol reports whether the watchlist already contains the symbol.
func (p Portfolio) HasSymbol(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	for _, item := range p.Watchlist {
		if NormalizeSymbol(item.Symbol) == symbol {
			return true
		}
	}
	return false
}

// OpenPositions returns the positions with status open.
func (p Portfolio) OpenPositions() []Position {
	open := make([]Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		if pos.Status == PositionOpen {
			open = append(open, pos)
		}
	}
	return open
}

// PortfolioSummary aggregates a set of positions.
type PortfolioSummary struct {
	TotalValue              float64 `json:"totalValue"`
	TotalCost               float64 `json:"totalCost"`
	TotalGainLoss           float64 `json:"totalGainLoss"`
	TotalGainLossPercentage float64 `json:"totalGainLossPercentage"`
	PositionCount           int     `json:"positionCount"`
}

// Summarize totals market value and cost across the positions.
func Summarize(positions []Position) PortfolioSummary {
	var s PortfolioSummary
	for _, p := range positions {
		s.TotalValue += p.Quantity * p.CurrentPrice
		s.TotalCost += p.Quantity * p.AveragePrice
	}
	s.TotalGainLoss = s.TotalValue - s.TotalCost
	if s.TotalCost > 0 {
		s.TotalGainLossPercentage = s.TotalGainLoss / s.TotalCost * 100
	}
	s.PositionCount = len(positions)
	return s
}
