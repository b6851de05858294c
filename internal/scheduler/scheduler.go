package scheduler

import (
	"context"
	"log/slog"
	"time"

	"wingman/internal/digest"

	"github.com/robfig/cron/v3"
)

const (
	DefaultDigestSpec     = "0 9 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	runDigestTimeout      = 15 * time.Minute
)

type DigestRunner interface {
	Run(ctx context.Context) (digest.Report, error)
}

type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	runner DigestRunner
	log    *slog.Logger
}

func New(ctx context.Context, spec string, runner DigestRunner, log *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultDigestSpec
	}

	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   spec,
		runner: runner,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDigest); err != nil {
		return err
	}

	s.cron.Start()

	s.log.InfoContext(s.ctx, "Scheduler is started",
		"spec", s.spec,
		"timezone", Timezone)

	return nil
}

// Stop waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, runDigestTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	report, err := s.runner.Run(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to run digest",
			"error", err,
			"spec", s.spec)
		return
	}

	if err = report.Err(); err != nil {
		s.log.WarnContext(ctx, "Digest finished with failures",
			"error", err,
			"failed", report.Failed,
			"users", report.Users)
	}
}
