package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"volarb/internal/marketdata"
	"volarb/internal/models"
)

type optionChainResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []optionQuote `json:"calls"`
				Puts           []optionQuote `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

type optionQuote struct {
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int     `json:"volume"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

func (c *Client) OptionExpirations(ctx context.Context, ticker string) ([]models.Date, error) {
	var out optionChainResponse
	if err := c.doRequest(ctx, "/v7/finance/options/"+url.PathEscape(ticker), nil, &out); err != nil {
		return nil, err
	}
	if out.OptionChain.Error != nil || len(out.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, marketdata.ErrNoData)
	}
	stamps := out.OptionChain.Result[0].ExpirationDates
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%s: no option expirations: %w", ticker, marketdata.ErrNoData)
	}
	dates := make([]models.Date, 0, len(stamps))
	for _, ts := range stamps {
		dates = append(dates, models.DateOf(time.Unix(ts, 0)))
	}
	return dates, nil
}

func (c *Client) OptionChain(ctx context.Context, ticker string, expiration models.Date) ([]marketdata.OptionQuote, error) {
	var out optionChainResponse
	query := url.Values{}
	query.Set("date", strconv.FormatInt(expiration.Time().Unix(), 10))
	if err := c.doRequest(ctx, "/v7/finance/options/"+url.PathEscape(ticker), query, &out); err != nil {
		return nil, err
	}
	if out.OptionChain.Error != nil || len(out.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, marketdata.ErrNoData)
	}
	result := out.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return nil, fmt.Errorf("%s %s: empty chain: %w", ticker, expiration, marketdata.ErrNoData)
	}

	// Only calls are traded; puts exist in the payload but the strategy never
	// looks at them.
	calls := result.Options[0].Calls
	quotes := make([]marketdata.OptionQuote, 0, len(calls))
	for _, q := range calls {
		quotes = append(quotes, marketdata.OptionQuote{
			Strike:            q.Strike,
			Bid:               q.Bid,
			Ask:               q.Ask,
			Volume:            q.Volume,
			ImpliedVolatility: q.ImpliedVolatility,
		})
	}
	return quotes, nil
}
