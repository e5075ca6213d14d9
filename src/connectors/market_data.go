// REST CLIENT FOR THE MARKET-DATA CHART API
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

// -----------------------------
// CONFIG
// -----------------------------
const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// Sentinel failures the scoring pipeline distinguishes: both are retryable up
// front; after retries are exhausted the ticker is skipped for the cycle.
var (
	ErrNoData      = errors.New("provider returned no data for symbol")
	ErrRateLimited = errors.New("provider rate limit exceeded")
)

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

// -----------------------------
// CHART API RESPONSE
// -----------------------------
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				FirstTradeDate *int64 `json:"firstTradeDate"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryProfile *struct {
				Sector string `json:"sector"`
			} `json:"summaryProfile"`
			SummaryDetail *struct {
				MarketCap     rawNumber `json:"marketCap"`
				Beta          rawNumber `json:"beta"`
				AverageVolume rawNumber `json:"averageVolume"`
				Volume        rawNumber `json:"volume"`
			} `json:"summaryDetail"`
			FinancialData *struct {
				DebtToEquity rawNumber `json:"debtToEquity"`
				CurrentRatio rawNumber `json:"currentRatio"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawNumber handles the provider's {"raw": 1.23, "fmt": "1.23"} wrapping.
type rawNumber struct {
	Raw *float64 `json:"raw"`
}

// -----------------------------
// CLIENT
// -----------------------------
type MarketDataClient struct {
	baseURL string
	http    *resty.Client
}

func NewMarketDataClient(baseURL string, timeout time.Duration, retryAttempts int) *MarketDataClient {
	if retryAttempts <= 0 {
		retryAttempts = defaultRetryAttempts
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://query1.finance.yahoo.com"
		logger.Warnf("No market data base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &MarketDataClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// GetOHLCV fetches days of daily bars for a symbol. Bars with missing fields
// are dropped rather than zero-filled.
func (c *MarketDataClient) GetOHLCV(ctx context.Context, symbol string, days int) (model.OHLCVSeries, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}
	if days <= 0 {
		days = 365
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("range", fmt.Sprintf("%dd", days)).
		SetQueryParam("interval", "1d").
		Get("/v8/finance/chart/" + url.PathEscape(symbol))
	if err != nil {
		return nil, err
	}
	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var decoded chartResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if decoded.Chart.Error != nil {
		if strings.EqualFold(decoded.Chart.Error.Code, "Not Found") {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("chart api error: %s (%s)", decoded.Chart.Error.Description, decoded.Chart.Error.Code)
	}
	if len(decoded.Chart.Result) == 0 || len(decoded.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := decoded.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(model.OHLCVSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil ||
			quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}
		volume := 0.0
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		series = append(series, model.OHLCVBar{
			Symbol:   symbol,
			Datetime: time.Unix(ts, 0).UTC(),
			Open:     decimal.NewFromFloat(*quote.Open[i]),
			High:     decimal.NewFromFloat(*quote.High[i]),
			Low:      decimal.NewFromFloat(*quote.Low[i]),
			Close:    decimal.NewFromFloat(*quote.Close[i]),
			Volume:   decimal.NewFromFloat(volume),
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}

	logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(series),
	}).Debug("Fetched OHLCV series")

	return series, nil
}

// GetFundamentals fetches the fundamentals snapshot used by the risk filters.
// Fields the provider has no figure for stay nil.
func (c *MarketDataClient) GetFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("modules", "summaryProfile,summaryDetail,financialData").
		Get("/v10/finance/quoteSummary/" + url.PathEscape(symbol))
	if err != nil {
		return nil, err
	}
	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var decoded quoteSummaryResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode quote summary: %w", err)
	}
	if decoded.QuoteSummary.Error != nil || len(decoded.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	result := decoded.QuoteSummary.Result[0]
	fundamentals := &model.Fundamentals{Ticker: symbol}

	if result.SummaryProfile != nil {
		fundamentals.Sector = result.SummaryProfile.Sector
	}
	if result.SummaryDetail != nil {
		fundamentals.MarketCap = result.SummaryDetail.MarketCap.Raw
		fundamentals.Beta = result.SummaryDetail.Beta.Raw
		fundamentals.AvgVolume30d = result.SummaryDetail.AverageVolume.Raw
		fundamentals.Volume = result.SummaryDetail.Volume.Raw
	}
	if result.FinancialData != nil {
		fundamentals.DebtToEquity = result.FinancialData.DebtToEquity.Raw
		fundamentals.CurrentRatio = result.FinancialData.CurrentRatio.Raw
	}

	// The quote summary carries no listing date; the chart meta does.
	fundamentals.ListingYears = c.listingYears(ctx, symbol)

	return fundamentals, nil
}

// listingYears derives the listing age from the chart meta's first trade
// date. Best effort: any failure leaves the field nil and the listing-age
// risk filter fails closed.
func (c *MarketDataClient) listingYears(ctx context.Context, symbol string) *float64 {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("range", "1d").
		SetQueryParam("interval", "1d").
		Get("/v8/finance/chart/" + url.PathEscape(symbol))
	if err != nil || resp.StatusCode() != 200 {
		logger.WithField("symbol", symbol).Debug("No chart meta for listing age")
		return nil
	}

	var decoded chartResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil
	}
	if len(decoded.Chart.Result) == 0 || decoded.Chart.Result[0].Meta.FirstTradeDate == nil {
		return nil
	}

	firstTrade := time.Unix(*decoded.Chart.Result[0].Meta.FirstTradeDate, 0)
	years := time.Since(firstTrade).Hours() / 24 / 365.25
	if years < 0 {
		return nil
	}
	return &years
}

func classifyStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == 404:
		return ErrNoData
	case resp.StatusCode() == 429:
		return ErrRateLimited
	case resp.StatusCode() != 200:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
