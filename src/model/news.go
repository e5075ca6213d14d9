package model

import "time"

// NewsType classifies an article by the catalyst it describes.
type NewsType string

const (
	NewsTypeEarnings NewsType = "earnings"
	NewsTypeDividend NewsType = "dividend"
	NewsTypeMA       NewsType = "ma"
	NewsTypeSector   NewsType = "sector"
	NewsTypeGeneral  NewsType = "general"
)

// NewsItem is a single ingested article. Rows are immutable once stored;
// re-ingesting the same article upserts on (ticker, headline, published_at).
type NewsItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Ticker      string    `gorm:"size:20;not null;index;uniqueIndex:idx_news_dedup" json:"ticker"`
	Headline    string    `gorm:"size:512;not null;uniqueIndex:idx_news_dedup" json:"headline"`
	Body        string    `gorm:"type:text" json:"body"`
	PublishedAt time.Time `gorm:"not null;index;uniqueIndex:idx_news_dedup" json:"published_at"`
	Source      string    `gorm:"size:100" json:"source"`
	NewsType    NewsType  `gorm:"size:20;not null;default:general" json:"news_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (NewsItem) TableName() string {
	return "news_items"
}
