package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadgen_cache_lookups_total",
		Help: "Cache lookups by operation and outcome",
	}, []string{"operation", "outcome"})

	rateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadgen_rate_limit_decisions_total",
		Help: "Rate limiter decisions by endpoint class and outcome",
	}, []string{"class", "outcome"})

	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadgen_upstream_request_duration_seconds",
		Help:    "ContactOut request latency by endpoint and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	qualityProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadgen_quality_probes_total",
		Help: "Contact availability probes by type and outcome",
	}, []string{"type", "outcome"})

	creditsDesc = prometheus.NewDesc(
		"leadgen_contactout_credits",
		"Last polled ContactOut credit balance by kind",
		[]string{"kind", "measure"},
		nil,
	)
)

// CreditBalance is one line of the upstream usage report.
type CreditBalance struct {
	Kind      string // email, phone, search
	Used      int
	Quota     int
	Remaining int
}

// CreditsCollector emits the most recent credit snapshot on each scrape.
type CreditsCollector struct {
	mu       sync.RWMutex
	balances []CreditBalance
}

// Describe sends the metric descriptor to the channel.
func (c *CreditsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- creditsDesc
}

// Collect emits used, quota and remaining gauges for every kind.
func (c *CreditsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.balances {
		for measure, v := range map[string]int{"used": b.Used, "quota": b.Quota, "remaining": b.Remaining} {
			ch <- prometheus.MustNewConstMetric(creditsDesc, prometheus.GaugeValue, float64(v), b.Kind, measure)
		}
	}
}

func (c *CreditsCollector) set(balances []CreditBalance) {
	c.mu.Lock()
	c.balances = append([]CreditBalance(nil), balances...)
	c.mu.Unlock()
}

var (
	credits  = &CreditsCollector{}
	initOnce sync.Once
)

// Init registers all collectors with the default registry.
// Must be called once at startup.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(cacheLookups, rateLimitDecisions, upstreamDuration, qualityProbes, credits)
	})
}

// RecordCacheLookup counts a cache hit or miss for an operation tag.
func RecordCacheLookup(operation string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(operation, outcome).Inc()
}

// RecordRateLimit counts a limiter decision: admitted, rejected or store_error.
func RecordRateLimit(class, outcome string) {
	rateLimitDecisions.WithLabelValues(class, outcome).Inc()
}

// ObserveUpstream records the latency of one upstream call. A status of 0
// means no response was received.
func ObserveUpstream(endpoint string, status int, d time.Duration) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamDuration.WithLabelValues(endpoint, label).Observe(d.Seconds())
}

// RecordProbe counts an availability probe result.
func RecordProbe(probeType string, available bool, err error) {
	outcome := "unavailable"
	switch {
	case err != nil:
		outcome = "error"
	case available:
		outcome = "available"
	}
	qualityProbes.WithLabelValues(probeType, outcome).Inc()
}

// SetCredits replaces the credit snapshot exported on /metrics.
func SetCredits(balances []CreditBalance) {
	credits.set(balances)
}
