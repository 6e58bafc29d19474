package fee

import (
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/num"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidFeeFactor signals a fee factor that failed to parse or
	// is negative.
	ErrInvalidFeeFactor = errors.New("invalid fee factor")
)

// Role of an order in a trade: the maker was resting longer, the taker
// crossed against it.
type Role int

const (
	RoleMaker Role = iota
	RoleTaker
)

func (r Role) String() string {
	if r == RoleMaker {
		return "maker"
	}
	return "taker"
}

// Schedule carries the per-asset fee rates as decimal strings, the way
// they arrive from configuration (e.g. "0.001" for 10bps).
type Schedule struct {
	MakerFee string `long:"maker-fee"`
	TakerFee string `long:"taker-fee"`
}

type factors struct {
	makerFee num.Decimal
	takerFee num.Decimal
}

// Engine computes the cash fee for one side of a trade. It is pure and
// deterministic: same role, notional and schedule always give the same
// amount, and the amount is never negative.
type Engine struct {
	log *logging.Logger
	cfg Config

	asset    string
	schedule Schedule
	f        factors
}

// New returns a fee engine for one asset, with the schedule parsed and
// validated upfront.
func New(log *logging.Logger, cfg Config, schedule Schedule, asset string) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	e := &Engine{
		log:   log,
		cfg:   cfg,
		asset: asset,
	}
	return e, e.UpdateSchedule(schedule)
}

// ReloadConf is used in order to reload the internal configuration of
// the fee engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

// UpdateSchedule re-parses the fee factors, rejecting anything that is
// not a non-negative decimal.
func (e *Engine) UpdateSchedule(schedule Schedule) error {
	maker, err := num.DecimalFromString(schedule.MakerFee)
	if err != nil {
		e.log.Error("unable to load maker fee", logging.Error(err))
		return ErrInvalidFeeFactor
	}
	taker, err := num.DecimalFromString(schedule.TakerFee)
	if err != nil {
		e.log.Error("unable to load taker fee", logging.Error(err))
		return ErrInvalidFeeFactor
	}
	if maker.IsNegative() || taker.IsNegative() {
		return ErrInvalidFeeFactor
	}
	e.f = factors{makerFee: maker, takerFee: taker}
	e.schedule = schedule
	return nil
}

// Calculate returns the fee charged to the given role on a trade of the
// given notional. The product rounds down to integer minor units, so a
// fee can be zero on tiny trades but never negative.
func (e *Engine) Calculate(role Role, notional *num.Uint) *num.Uint {
	factor := e.f.takerFee
	if role == RoleMaker {
		factor = e.f.makerFee
	}
	amount, _ := num.UintFromDecimal(num.DecimalFromUint(notional).Mul(factor))
	return amount
}
