// Package batch runs many path and optimize jobs in parallel against one
// shared service.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"mix-optimizer/internal/errors"
	"mix-optimizer/internal/mixer"
)

// Status is the outcome of a job.
type Status string

const (
	// StatusOK marks a job that returned a result.
	StatusOK Status = "ok"
	// StatusFail marks a job that returned an error.
	StatusFail Status = "fail"
)

// Result is the outcome of one job. Results keep the order of the jobs.
type Result struct {
	ID       string              `json:"id" yaml:"id"`
	Kind     Kind                `json:"kind" yaml:"kind"`
	Status   Status              `json:"status" yaml:"status"`
	Code     errors.ErrorCode    `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
	Seconds  float64             `json:"seconds" yaml:"seconds"`
	Path     *mixer.PathResult   `json:"path,omitempty" yaml:"path,omitempty"`
	Optimize *mixer.ProfitResult `json:"optimize,omitempty" yaml:"optimize,omitempty"`
}

// Summary counts results by status. Skipped counts jobs that never started.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	OK      int `json:"ok" yaml:"ok"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusFail:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	return s
}

// Runner executes jobs with bounded parallelism.
type Runner struct {
	service  *mixer.Service
	workers  int
	registry *prometheus.Registry
	metrics  *metrics
}

// NewRunner creates a Runner. A non-positive workers value uses one worker
// per CPU.
func NewRunner(service *mixer.Service, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	reg := prometheus.NewRegistry()
	return &Runner{
		service:  service,
		workers:  workers,
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Workers returns the parallelism limit.
func (r *Runner) Workers() int { return r.workers }

// Registry exposes the runner's metrics.
func (r *Runner) Registry() *prometheus.Registry { return r.registry }

// WriteMetrics writes the runner's metrics in the Prometheus text format.
func (r *Runner) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Run executes jobs and returns one result per job in input order. A failing
// job yields a result with StatusFail and does not stop the batch. When ctx
// is canceled no new jobs start and Run returns the context error along with
// the results gathered so far; unstarted jobs have a zero Status.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		results[i] = Result{ID: job.ID, Kind: job.Kind}
	}
	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	slog.Info("batch started", "jobs", len(jobs), "workers", r.workers)
	start := time.Now()

	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = r.runJob(job)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summarize(results)
	slog.Info("batch finished",
		"ok", sum.OK,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"duration", time.Since(start).String())

	return results, ctx.Err()
}

func (r *Runner) runJob(job Job) Result {
	res := Result{ID: job.ID, Kind: job.Kind}
	start := time.Now()

	var (
		err      error
		expanded int
	)
	switch {
	case job.Kind == KindPath && job.Path != nil:
		res.Path, err = r.service.FindPath(*job.Path)
		if res.Path != nil {
			expanded = res.Path.Expanded
		}
	case job.Kind == KindOptimize && job.Optimize != nil:
		res.Optimize, err = r.service.Optimize(*job.Optimize)
		if res.Optimize != nil {
			expanded = res.Optimize.Expanded
		}
	default:
		err = errors.New(errors.ErrCodeInvalidRequest, "job has no request for kind "+strconv.Quote(string(job.Kind)))
	}

	elapsed := time.Since(start)
	res.Seconds = elapsed.Seconds()
	r.metrics.jobDuration.WithLabelValues(string(job.Kind)).Observe(elapsed.Seconds())

	if err != nil {
		res.Status = StatusFail
		res.Code = errors.CodeOf(err)
		res.Error = err.Error()
		slog.Warn("job failed", "id", job.ID, "kind", job.Kind, "error", err)
	} else {
		res.Status = StatusOK
		r.metrics.expandedNodes.WithLabelValues(string(job.Kind)).Add(float64(expanded))
		slog.Debug("job done", "id", job.ID, "kind", job.Kind, "seconds", res.Seconds)
	}
	r.metrics.jobsTotal.WithLabelValues(string(job.Kind), string(res.Status)).Inc()
	return res
}
