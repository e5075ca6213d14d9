package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

type newsFeedResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Ticker      string `json:"ticker"`
		Headline    string `json:"headline"`
		Body        string `json:"body"`
		Source      string `json:"source"`
		Category    string `json:"category"`
		PublishedAt string `json:"published_at"`
	} `json:"articles"`
}

// NewsClient fetches recent articles per ticker from the news feed API.
// An empty article list is a normal outcome, not an error.
type NewsClient struct {
	baseURL string
	http    *resty.Client
}

func NewNewsClient(baseURL string, timeout time.Duration, retryAttempts int) *NewsClient {
	if retryAttempts <= 0 {
		retryAttempts = defaultRetryAttempts
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &NewsClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// GetArticles returns the articles published for a ticker within the lookback
// window, already typed by catalyst.
func (c *NewsClient) GetArticles(ctx context.Context, ticker string, hoursBack int) ([]model.NewsItem, error) {
	if c.baseURL == "" {
		return nil, nil // no feed configured, scoring runs on stored articles
	}
	if hoursBack <= 0 {
		hoursBack = 48
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("ticker", ticker).
		SetQueryParam("hours", fmt.Sprintf("%d", hoursBack)).
		Get("/v1/articles")
	if err != nil {
		return nil, err
	}
	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var decoded newsFeedResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode news feed response: %w", err)
	}
	if decoded.Status != "" && !strings.EqualFold(decoded.Status, "ok") {
		return nil, fmt.Errorf("unexpected status field: %q", decoded.Status)
	}

	items := make([]model.NewsItem, 0, len(decoded.Articles))
	for _, article := range decoded.Articles {
		publishedAt, err := time.Parse(time.RFC3339, article.PublishedAt)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"ticker":   ticker,
				"headline": article.Headline,
			}).WithError(err).Warn("Skipping article with unparseable timestamp")
			continue
		}
		itemTicker := article.Ticker
		if itemTicker == "" {
			itemTicker = ticker
		}
		items = append(items, model.NewsItem{
			Ticker:      itemTicker,
			Headline:    article.Headline,
			Body:        article.Body,
			Source:      article.Source,
			NewsType:    parseNewsType(article.Category),
			PublishedAt: publishedAt.UTC(),
		})
	}

	logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"articles": len(items),
	}).Debug("Fetched news articles")

	return items, nil
}

func parseNewsType(category string) model.NewsType {
	switch model.NewsType(strings.ToLower(strings.TrimSpace(category))) {
	case model.NewsTypeEarnings:
		return model.NewsTypeEarnings
	case model.NewsTypeDividend:
		return model.NewsTypeDividend
	case model.NewsTypeMA:
		return model.NewsTypeMA
	case model.NewsTypeSector:
		return model.NewsTypeSector
	default:
		return model.NewsTypeGeneral
	}
}
