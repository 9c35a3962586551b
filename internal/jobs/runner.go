package jobs

import (
	"context"
	"fmt"
	"sort"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
)

// Job is one runnable batch step of the daily repurchase cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) (dto.JobRunSummary, error)
}

// Registry holds the known jobs, runnable by name from the operator API or a
// scheduler.
type Registry struct {
	jobs map[string]Job
}

// NewRegistry indexes the given jobs by name.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{jobs: map[string]Job{}}
	for _, job := range jobs {
		registry.jobs[job.Name()] = job
	}
	return registry
}

// Names lists the registered job names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job.
func (r *Registry) Run(ctx context.Context, name string) (dto.JobRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	job, ok := r.jobs[name]
	if !ok {
		return dto.JobRunSummary{}, fmt.Errorf("%w: unknown job %q", apperrors.ErrNotFound, name)
	}

	logger.Info("Job starting", "job", name)
	summary, err := job.Run(ctx)
	if err != nil {
		logger.Error("Job aborted", "job", name, "error", err)
		return summary, err
	}
	logger.Info("Job finished",
		"job", name,
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return summary, nil
}
