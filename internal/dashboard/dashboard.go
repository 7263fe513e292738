// Package dashboard derives the summary metrics shown on the recruiter dashboard.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/url"

	"golang.org/x/sync/errgroup"

	sdk "hireline/sdk/go"
)

// Source names one of the three reads the aggregator depends on.
type Source string

const (
	SourceJobs         Source = "jobs"
	SourceCandidates   Source = "candidates"
	SourceApplications Source = "applications"
)

// Lister is satisfied by *hirelinesdk.Collection[T].
type Lister[T any] interface {
	List(ctx context.Context, query url.Values) ([]T, error)
}

// Stats is the metrics record rendered by the dashboard.
type Stats struct {
	ActiveJobs        int `json:"activeJobs"`
	TotalCandidates   int `json:"totalCandidates"`
	TotalApplications int `json:"totalApplications"`
	HotApplicants     int `json:"hotApplicants"`
	AvgAIScore        int `json:"avgAIScore"`
}

// Result carries the stats plus which sources, if any, failed. Stats is all
// zero whenever Failed is non-empty.
type Result struct {
	Stats  Stats    `json:"stats"`
	Failed []Source `json:"failed,omitempty"`
	Err    error    `json:"-"`
}

// OK reports whether every source was read.
func (r Result) OK() bool { return len(r.Failed) == 0 }

type Aggregator struct {
	Jobs         Lister[sdk.Job]
	Candidates   Lister[sdk.Candidate]
	Applications Lister[sdk.Application]
	Logger       *slog.Logger
}

// New wires an aggregator to the client's resource collections.
func New(c *sdk.Client) Aggregator {
	return Aggregator{
		Jobs:         c.Jobs,
		Candidates:   c.Candidates,
		Applications: c.Applications,
		Logger:       c.Logger,
	}
}

// Stats reads jobs, candidates and applications concurrently and folds them
// into one record. A failed read never surfaces as an error: the result is
// zeroed and the failing sources are listed.
func (a Aggregator) Stats(ctx context.Context) Result {
	var (
		jobs       []sdk.Job
		candidates []sdk.Candidate
		apps       []sdk.Application
		errs       [3]error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, errs[0] = a.Jobs.List(gctx, nil)
		return errs[0]
	})
	g.Go(func() error {
		candidates, errs[1] = a.Candidates.List(gctx, nil)
		return errs[1]
	})
	g.Go(func() error {
		apps, errs[2] = a.Applications.List(gctx, nil)
		return errs[2]
	})
	if err := g.Wait(); err != nil {
		res := Result{Err: err}
		for i, src := range []Source{SourceJobs, SourceCandidates, SourceApplications} {
			// Reads cancelled because a sibling failed are not failures of their own.
			if errs[i] != nil && !(errors.Is(errs[i], context.Canceled) && ctx.Err() == nil) {
				res.Failed = append(res.Failed, src)
			}
		}
		a.logger().Error("dashboard stats degraded to zero",
			slog.Any("failed", res.Failed),
			slog.String("error", err.Error()),
		)
		return res
	}
	return Result{Stats: Compute(jobs, candidates, apps)}
}

// Compute derives the stats from already loaded records.
func Compute(jobs []sdk.Job, candidates []sdk.Candidate, apps []sdk.Application) Stats {
	s := Stats{
		TotalCandidates:   len(candidates),
		TotalApplications: len(apps),
	}
	for _, j := range jobs {
		if j.IsActive {
			s.ActiveJobs++
		}
	}
	var (
		sum    float64
		scored int
	)
	for _, app := range apps {
		if app.IsHotApplicant {
			s.HotApplicants++
		}
		if app.AIScore != nil {
			sum += *app.AIScore
			scored++
		}
	}
	if scored > 0 {
		s.AvgAIScore = roundHalfUp(sum / float64(scored))
	}
	return s
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func (a Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
