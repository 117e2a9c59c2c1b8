package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"

	"ledgerkeep/internal/cli"
	"ledgerkeep/internal/config"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/log"
	"ledgerkeep/internal/schedule"
	"ledgerkeep/internal/services"
	"ledgerkeep/internal/snapshot"
)

type job struct {
	name      string
	component string
	spec      string
	fn        func(ctx context.Context, logger *log.Logger) error
}

// worker runs the scheduled jobs. Jobs never overlap: each one opens the
// data files it needs and closes them before the next starts.
type worker struct {
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

func newWorker(cfg *config.Config, logger *log.Logger) *worker {
	return &worker{cfg: cfg, logger: logger, now: time.Now}
}

func (w *worker) jobs() []job {
	return []job{
		{name: "post-recurring", component: log.ComponentRecurring, spec: w.cfg.RecurringSchedule, fn: w.postRecurring},
		{name: "backup", component: log.ComponentSnapshot, spec: w.cfg.BackupSchedule, fn: w.backup},
	}
}

// run schedules every job with a spec and blocks until ctx is done. Due
// recurring entries are posted once at startup so a missed tick is caught
// up.
func (w *worker) run(ctx context.Context) error {
	c := cron.New()
	jobs := w.jobs()
	for _, j := range jobs {
		if j.spec == "" {
			w.logger.Info("Job disabled", log.FieldOperation, j.name)
			continue
		}
		if err := c.AddFunc(j.spec, func() { w.runJob(ctx, j) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Start()
		<-gctx.Done()
		c.Stop()
		return nil
	})
	g.Go(func() error {
		if jobs[0].spec != "" {
			w.runJob(gctx, jobs[0])
		}
		return nil
	})
	return g.Wait()
}

// runOnce runs every job a single time and reports their errors together.
func (w *worker) runOnce(ctx context.Context) error {
	var errs []error
	for _, j := range w.jobs() {
		if err := w.runJob(ctx, j); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
		}
	}
	return errors.Join(errs...)
}

func (w *worker) runJob(ctx context.Context, j job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger := w.logger.WithComponent(j.component).With(log.FieldRunID, cli.NewRunID())
	start := time.Now()
	logger.Info("Job started", log.FieldOperation, j.name)
	if err := j.fn(ctx, logger); err != nil {
		logger.Error("Job failed",
			log.FieldOperation, j.name,
			log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return err
	}
	logger.Info("Job complete",
		log.FieldOperation, j.name,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *worker) postRecurring(ctx context.Context, logger *log.Logger) error {
	sched, err := schedule.Open(w.cfg.RecurrencesPath)
	if err != nil {
		return err
	}
	defer sched.Close()

	res, err := cli.OpenBackend(ctx, logger, w.cfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	month := core.MonthOf(w.now())
	posted, present, err := services.NewRecurringProcessor(sched, res.Store).PostAll(ctx, month)
	logger.Info("Recurring entries processed",
		log.FieldMonth, month.String(),
		log.FieldPosted, posted,
		log.FieldPresent, present)
	return err
}

func (w *worker) backup(_ context.Context, logger *log.Logger) error {
	path, err := snapshot.NewManager(w.cfg.BackupDir).Create(w.cfg.SnapshotFiles())
	if err != nil {
		return err
	}
	logger.Info("Backup written", log.FieldArchive, path)
	return nil
}
