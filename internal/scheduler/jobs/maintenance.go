package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/fundscope/pkg/logger"
)

// HealthCheck probes one backing service
type HealthCheck func(ctx context.Context) error

// HealthJob periodically probes database and cache connectivity
type HealthJob struct {
	checks map[string]HealthCheck
	logger *logger.Logger
}

// NewHealthJob creates a new health probe job
func NewHealthJob(checks map[string]HealthCheck, log *logger.Logger) *HealthJob {
	return &HealthJob{
		checks: checks,
		logger: log.Component("health"),
	}
}

// Name returns the job name
func (j *HealthJob) Name() string {
	return "health_probe"
}

// Schedule returns the cron schedule (every minute)
func (j *HealthJob) Schedule() string {
	return "0 * * * * *"
}

// Run executes every check and joins the failures
func (j *HealthJob) Run(ctx context.Context) error {
	names := make([]string, 0, len(j.checks))
	for name := range j.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := j.checks[name](ctx); err != nil {
			j.logger.WithError(err).WithField("check", name).Warn("Health check failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
