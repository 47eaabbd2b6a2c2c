package model

import "time"

// MaxNewsFeed bounds the market news feed; the oldest event is evicted first.
const MaxNewsFeed = 20

// Impact grades a news event.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// MarketNewsEvent is emitted when an item's tick-over-tick move crosses the news threshold.
type MarketNewsEvent struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	PublishedAt   time.Time `json:"published_at"`
	TitleEN       string    `json:"title_en"`
	TitleAR       string    `json:"title_ar"`
	BodyEN        string    `json:"body_en"`
	BodyAR        string    `json:"body_ar"`
	Impact        Impact    `json:"impact"`
	Category      string    `json:"category"`
	AffectedItems []string  `json:"affected_items"`
	PercentChange float64   `json:"percent_change"`
	Breaking      bool      `json:"breaking"`
}

// NewsItem is a MarketNewsEvent rendered for one locale.
type NewsItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Impact        Impact    `json:"impact"`
	Category      string    `json:"category"`
	AffectedItems []string  `json:"affected_items"`
	PercentChange float64   `json:"percent_change"`
	Breaking      bool      `json:"breaking"`
	PublishedAt   time.Time `json:"published_at"`
}

// Localize picks the Arabic text for locale "ar" and English otherwise.
func (e MarketNewsEvent) Localize(locale string) NewsItem {
	title, body := e.TitleEN, e.BodyEN
	if locale == "ar" && e.TitleAR != "" {
		title, body = e.TitleAR, e.BodyAR
	}
	return NewsItem{
		ID:            e.ID,
		Title:         title,
		Body:          body,
		Impact:        e.Impact,
		Category:      e.Category,
		AffectedItems: append([]string(nil), e.AffectedItems...),
		PercentChange: e.PercentChange,
		Breaking:      e.Breaking,
		PublishedAt:   e.PublishedAt,
	}
}

// MarketStatistics summarizes the active catalog for dashboards.
type MarketStatistics struct {
	RisingCount        int             `json:"rising_count"`
	FallingCount       int             `json:"falling_count"`
	StableCount        int             `json:"stable_count"`
	DominantVolatility VolatilityClass `json:"dominant_volatility"`
}
