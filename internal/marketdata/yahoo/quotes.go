package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"volarb/internal/marketdata"
	"volarb/internal/models"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	var out chartResponse
	query := url.Values{}
	query.Set("range", "1d")
	query.Set("interval", "1d")
	if err := c.doRequest(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), query, &out); err != nil {
		return 0, err
	}
	if out.Chart.Error != nil || len(out.Chart.Result) == 0 {
		return 0, fmt.Errorf("%s: %w", ticker, marketdata.ErrNoData)
	}
	price := out.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("%s: no regular market price: %w", ticker, marketdata.ErrNoData)
	}
	return price, nil
}

func (c *Client) HistoricalCloses(ctx context.Context, ticker string, days int) ([]marketdata.Candle, error) {
	if days <= 0 {
		days = 1
	}
	var out chartResponse
	query := url.Values{}
	query.Set("range", fmt.Sprintf("%dd", days))
	query.Set("interval", "1d")
	if err := c.doRequest(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), query, &out); err != nil {
		return nil, err
	}
	if out.Chart.Error != nil || len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, marketdata.ErrNoData)
	}
	result := out.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: empty chart: %w", ticker, marketdata.ErrNoData)
	}
	closes := result.Indicators.Quote[0].Close

	candles := make([]marketdata.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Date:  models.DateOf(time.Unix(ts, 0)),
			Close: *closes[i],
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: no usable closes: %w", ticker, marketdata.ErrNoData)
	}
	return candles, nil
}
