// Package jobs contains the UnderLiv server's scheduled jobs.
package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pantheon-hub/underliv/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVICT IDLE REGISTRIES JOB
// ══════════════════════════════════════════════════════════════════════════════

// Evictor drops cached per-owner collections that were not used for maxIdle.
// Implemented by registry.Directory.
type Evictor interface {
	EvictIdle(maxIdle time.Duration) int
	Len() int
}

// EvictIdleRegistriesJob keeps the server's per-user cache bounded.
// Evicted owners are reloaded from the store on their next request.
type EvictIdleRegistriesJob struct {
	evictor Evictor
	maxIdle time.Duration
	log     *logger.Logger

	evictedTotal atomic.Int64
}

// NewEvictIdleRegistriesJob creates the job.
func NewEvictIdleRegistriesJob(evictor Evictor, maxIdle time.Duration, log *logger.Logger) *EvictIdleRegistriesJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &EvictIdleRegistriesJob{
		evictor: evictor,
		maxIdle: maxIdle,
		log:     log.With(logger.Component("evict_registries")),
	}
}

// Name implements scheduler.Job.
func (j *EvictIdleRegistriesJob) Name() string { return "evict_idle_registries" }

// Description implements scheduler.Job.
func (j *EvictIdleRegistriesJob) Description() string {
	return "Drops garment collections idle for longer than " + j.maxIdle.String()
}

// Run implements scheduler.Job.
func (j *EvictIdleRegistriesJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n := j.evictor.EvictIdle(j.maxIdle)
	j.evictedTotal.Add(int64(n))
	if n > 0 {
		j.log.Info("evicted idle collections",
			logger.Int("evicted", n),
			logger.Int("cached", j.evictor.Len()),
		)
	}
	return nil
}

// EvictedTotal returns how many collections the job has evicted so far.
func (j *EvictIdleRegistriesJob) EvictedTotal() int64 {
	return j.evictedTotal.Load()
}
