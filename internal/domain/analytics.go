package domain

import "time"

// UserAnalytics is an aggregate view over every user record.
type UserAnalytics struct {
	TotalUsers            int            `json:"totalUsers"`
	ActiveUsers           int            `json:"activeUsers"`
	NewUsers              int            `json:"newUsers"`
	VerifiedUsers         int            `json:"verifiedUsers"`
	PaidUsers             int            `json:"paidUsers"`
	UsersByAccountType    map[string]int `json:"usersByAccountType"`
	UsersByTier           map[string]int `json:"usersByTier"`
	AveragePortfolioValue float64        `json:"averagePortfolioValue"`
	Window                time.Duration  `json:"-"`
	GeneratedAt           time.Time      `json:"generatedAt"`
}

// SystemStats is the admin dashboard headline numbers.
type SystemStats struct {
	TotalUsers    int       `json:"totalUsers"`
	ActiveUsers   int       `json:"activeUsers"`
	TotalOrders   int       `json:"totalOrders"`
	PendingOrders int       `json:"pendingOrders"`
	TotalAdmins   int       `json:"totalAdmins"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
