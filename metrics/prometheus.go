package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	engineTime   *prometheus.CounterVec
	orderCounter *prometheus.CounterVec
	tradeCounter *prometheus.CounterVec
	orderGauge   *prometheus.GaugeVec
	cycleCounter prometheus.Counter
)

func init() {
	engineTime = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: "engine",
			Name:      "seconds_total",
			Help:      "Total time spent in engine functions",
		},
		[]string{"asset", "engine", "fn"},
	)
	orderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exchange",
			Name:      "orders_total",
			Help:      "Number of orders processed per asset",
		},
		[]string{"asset", "valid"},
	)
	tradeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exchange",
			Name:      "trades_total",
			Help:      "Number of trades generated per asset",
		},
		[]string{"asset"},
	)
	orderGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "exchange",
			Name:      "orders_resting",
			Help:      "Number of orders currently resting per asset",
		},
		[]string{"asset"},
	)
	cycleCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exchange",
			Name:      "cycles_total",
			Help:      "Number of matching cycles run",
		},
	)
	prometheus.MustRegister(engineTime, orderCounter, tradeCounter, orderGauge, cycleCounter)
}

// OrderCounterInc increments the order counter for an asset.
func OrderCounterInc(asset string, valid bool) {
	v := "false"
	if valid {
		v = "true"
	}
	orderCounter.WithLabelValues(asset, v).Inc()
}

// TradeCounterAdd adds to the trade counter for an asset.
func TradeCounterAdd(asset string, n int) {
	tradeCounter.WithLabelValues(asset).Add(float64(n))
}

// OrderGaugeAdd moves the resting-order gauge for an asset.
func OrderGaugeAdd(asset string, n int) {
	orderGauge.WithLabelValues(asset).Add(float64(n))
}

// CycleCounterInc counts one finished matching cycle.
func CycleCounterInc() {
	cycleCounter.Inc()
}

// TimeCounter holds a start time and the engine-time labels, use it
// with defer to accumulate wall time spent in an engine function.
type TimeCounter struct {
	asset  string
	engine string
	fn     string
	start  time.Time
}

// NewTimeCounter returns a new TimeCounter with the start time set.
func NewTimeCounter(asset, engine, fn string) *TimeCounter {
	return &TimeCounter{
		asset:  asset,
		engine: engine,
		fn:     fn,
		start:  time.Now(),
	}
}

// EngineTimeCounterAdd adds the elapsed time to the engine time counter.
func (tc *TimeCounter) EngineTimeCounterAdd() {
	engineTime.WithLabelValues(tc.asset, tc.engine, tc.fn).Add(time.Since(tc.start).Seconds())
}

// Start listens on addr and serves the prometheus scrape endpoint.
func Start(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}
