package allocation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"volarb/internal/config"
	"volarb/internal/models"
)

// ContractMultiplier is the shares-per-contract convention for US equity
// options.
const ContractMultiplier = 100

type RejectReason string

const (
	ReasonDuplicate        RejectReason = "duplicate_position"
	ReasonPortfolioFull    RejectReason = "portfolio_at_max_positions"
	ReasonTickerCapped     RejectReason = "ticker_at_max_positions"
	ReasonInsufficientCash RejectReason = "insufficient_cash"
)

// Rejection reports why an opportunity was not turned into a trade. It is an
// expected outcome, not a failure of the cycle.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// LedgerView is the read-only slice of portfolio state the policy needs.
type LedgerView interface {
	OpenCount() int
	TickerCount(ticker string) int
	HasPosition(ticker string, strike float64, expiration models.Date, side models.Side) bool
	Cash() decimal.Decimal
}

// Policy sizes opportunities and enforces the account's eligibility rules.
// Checks run in a fixed order: duplicate, portfolio cap, ticker cap, cash.
type Policy struct {
	Config config.PortfolioConfig
	Logger *zap.Logger
}

// Evaluate returns a sized trade, or a *Rejection error naming the first
// rule the opportunity failed.
func (p *Policy) Evaluate(opp models.Opportunity, ledger LedgerView) (*models.Trade, error) {
	if ledger.HasPosition(opp.Ticker, opp.Strike, opp.Expiration, opp.Side) {
		return nil, &Rejection{
			Reason: ReasonDuplicate,
			Detail: fmt.Sprintf("%s %s %.0f %s already open", opp.Ticker, opp.Side, opp.Strike, opp.Expiration),
		}
	}
	if ledger.OpenCount() >= p.Config.MaxTotalPositions {
		return nil, &Rejection{
			Reason: ReasonPortfolioFull,
			Detail: fmt.Sprintf("%d/%d positions open", ledger.OpenCount(), p.Config.MaxTotalPositions),
		}
	}
	if ledger.TickerCount(opp.Ticker) >= p.Config.MaxPerTicker {
		return nil, &Rejection{
			Reason: ReasonTickerCapped,
			Detail: fmt.Sprintf("%s already at %d position(s)", opp.Ticker, p.Config.MaxPerTicker),
		}
	}

	contracts := p.sizeContracts(opp.Bid)
	premium := decimal.NewFromFloat(opp.Bid).
		Mul(decimal.NewFromInt(ContractMultiplier)).
		Mul(decimal.NewFromInt(int64(contracts)))

	if premium.GreaterThan(ledger.Cash()) {
		return nil, &Rejection{
			Reason: ReasonInsufficientCash,
			Detail: fmt.Sprintf("need %s, have %s", premium.StringFixed(2), ledger.Cash().StringFixed(2)),
		}
	}

	return &models.Trade{
		Opportunity: opp,
		Contracts:   contracts,
		Premium:     premium,
	}, nil
}

// sizeContracts caps a single trade near PositionSizePct of the ticker's
// notional allocation, with a floor of one contract.
func (p *Policy) sizeContracts(price float64) int {
	perContract := price * ContractMultiplier
	if perContract <= 0 {
		return 1
	}
	n := int(math.Floor(p.Config.AllocationPerTicker * p.Config.PositionSizePct / perContract))
	if n < 1 {
		return 1
	}
	return n
}
