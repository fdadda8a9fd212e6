package quality

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"leadgen/internal/metrics"
	"leadgen/internal/models"
)

// ProbeType is one of the free availability checks.
type ProbeType string

const (
	ProbePersonalEmail ProbeType = "personal_email"
	ProbeWorkEmail     ProbeType = "work_email"
	ProbePhone         ProbeType = "phone"
)

// probeOrder is the order probes run for each profile.
var probeOrder = []ProbeType{ProbePersonalEmail, ProbeWorkEmail, ProbePhone}

// ProbeResult is the outcome of a single availability check. Verified only
// applies to work email.
type ProbeResult struct {
	Available bool
	Verified  bool
}

// Prober runs one availability check for a LinkedIn profile.
type Prober interface {
	Probe(ctx context.Context, org, profileURL string, t ProbeType) (ProbeResult, error)
}

// Result pairs a profile with its availability and score. Index is the
// profile's position in the input.
type Result struct {
	Index        int
	Profile      models.Profile
	Availability models.ContactAvailability
	Quality      models.QualityScore
}

// Scorer scores profiles in fixed-size concurrent groups. Each group waits
// for the previous one to finish plus a pause.
type Scorer struct {
	prober    Prober
	groupSize int
	pause     time.Duration
}

// NewScorer creates a Scorer. groupSize below 1 is treated as 1.
func NewScorer(prober Prober, groupSize int, pause time.Duration) *Scorer {
	return &Scorer{prober: prober, groupSize: max(1, groupSize), pause: pause}
}

// ScoreAll probes and scores every profile and returns the results sorted by
// descending score, ties kept in input order. Probe failures count as
// unavailable; only context cancellation returns an error.
func (s *Scorer) ScoreAll(ctx context.Context, org string, profiles []models.Profile) ([]Result, error) {
	results := make([]Result, len(profiles))

	groups := Partition(len(profiles), s.groupSize)
	for n, g := range groups {
		if n > 0 {
			if err := s.settle(ctx); err != nil {
				return nil, err
			}
		}

		eg, gctx := errgroup.WithContext(ctx)
		for i := g[0]; i < g[1]; i++ {
			eg.Go(func() error {
				availability := s.availability(gctx, org, profiles[i].LinkedInURL)
				results[i] = Result{
					Index:        i,
					Profile:      profiles[i],
					Availability: availability,
					Quality:      Score(&profiles[i], availability),
				}
				return nil
			})
		}
		_ = eg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Quality.Overall, a.Quality.Overall)
	})

	summary := map[string]int{}
	costRecommended := 0
	for _, r := range results {
		summary[r.Quality.Confidence]++
		if r.Quality.CostRecommended {
			costRecommended++
		}
	}
	slog.Info("profile quality scoring completed",
		"org", org,
		"profiles", len(profiles),
		"groups", len(groups),
		"high", summary[models.ConfidenceHigh],
		"medium", summary[models.ConfidenceMedium],
		"low", summary[models.ConfidenceLow],
		"cost_recommended", costRecommended,
	)

	return results, nil
}

// settle blocks for the configured pause after a group has finished. The
// limiter starts drained, so its first token is a full pause away.
func (s *Scorer) settle(ctx context.Context) error {
	if s.pause <= 0 {
		return ctx.Err()
	}
	gap := rate.NewLimiter(rate.Every(s.pause), 1)
	gap.Allow()
	return gap.Wait(ctx)
}

// availability runs the three probes in order. A failed probe is unavailable.
func (s *Scorer) availability(ctx context.Context, org, profileURL string) models.ContactAvailability {
	var a models.ContactAvailability
	if profileURL == "" {
		return a
	}

	for _, t := range probeOrder {
		res, err := s.prober.Probe(ctx, org, profileURL, t)
		metrics.RecordProbe(string(t), res.Available, err)
		if err != nil {
			slog.Warn("availability probe failed", "profile", profileURL, "type", t, "error", err)
			continue
		}
		switch t {
		case ProbePersonalEmail:
			a.PersonalEmail = res.Available
		case ProbeWorkEmail:
			a.WorkEmail = res.Available
			a.WorkEmailVerified = res.Verified
		case ProbePhone:
			a.Phone = res.Available
		}
	}
	return a
}

// Partition splits n items into consecutive [start, end) ranges of at most size.
func Partition(n, size int) [][2]int {
	if size < 1 {
		size = 1
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
