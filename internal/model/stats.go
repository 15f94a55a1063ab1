package model

// Stats is the collection overview shown on the dashboard.
// Monetary totals are fixed two-decimal strings.
type Stats struct {
	TotalCards    int64         `json:"totalCards"`
	TotalValue    string        `json:"totalValue"`
	AvgPrice      string        `json:"avgPrice"`
	TotalWishlist int64         `json:"totalWishlist"`
	TopCards      []CardSummary `json:"topCards"`
	RecentCards   []CardSummary `json:"recentCards"`
}
