package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"leadgen/internal/gateway"
)

// PollerOrg is the organization the poller's upstream calls are counted against.
const PollerOrg = "usage-poller"

// CreditsFetcher reads the upstream credit balance.
type CreditsFetcher interface {
	Credits(ctx context.Context, org string) (*gateway.Credits, error)
}

// UsagePoller refreshes the credit gauges on a cron schedule.
type UsagePoller struct {
	cron    *cron.Cron
	fetcher CreditsFetcher
	spec    string

	// initial tracks the poll fired by Start, which runs outside the scheduler.
	initial sync.WaitGroup
}

// NewUsagePoller creates a poller firing on spec, e.g. "@every 5m".
func NewUsagePoller(fetcher CreditsFetcher, spec string) *UsagePoller {
	return &UsagePoller{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		fetcher: fetcher,
		spec:    spec,
	}
}

// Start registers the job and starts the scheduler. One poll runs
// immediately so the gauges are populated before the first tick.
func (p *UsagePoller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.spec, func() { p.poll(ctx) }); err != nil {
		return fmt.Errorf("schedule usage poller %q: %w", p.spec, err)
	}

	p.cron.Start()
	slog.Info("usage poller started", "schedule", p.spec)

	p.initial.Add(1)
	go func() {
		defer p.initial.Done()
		p.poll(ctx)
	}()
	return nil
}

// Stop halts the schedule and waits for running polls to finish, including
// the one fired by Start.
func (p *UsagePoller) Stop() {
	<-p.cron.Stop().Done()
	p.initial.Wait()
	slog.Info("usage poller stopped")
}

func (p *UsagePoller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	credits, err := p.fetcher.Credits(ctx, PollerOrg)
	if err != nil {
		slog.Warn("usage poll failed", "error", err)
		return
	}

	slog.Debug("usage polled",
		"email_credits", credits.EmailCredits,
		"phone_credits", credits.PhoneCredits,
		"search_credits", credits.SearchCredits)

	for kind, remaining := range map[string]int{
		"email":  credits.EmailCredits,
		"phone":  credits.PhoneCredits,
		"search": credits.SearchCredits,
	} {
		if remaining <= 0 {
			slog.Warn("contactout credits exhausted", "kind", kind)
		}
	}
}
