package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wingman/internal/domain"
	"wingman/internal/metrics"
	"wingman/internal/neynar"

	"github.com/alitto/pond/v2"
)

const (
	StatusDelivered = "delivered"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

var ErrNotConfigured = errors.New("neynar API key is not configured")

type Store interface {
	ListNotifiableUsers(ctx context.Context) ([]domain.UserSettings, error)
	ListWatchlist(ctx context.Context, fid int64) ([]domain.WatchlistEntry, error)
	InsertDailySummary(ctx context.Context, fid int64, summary string) error
}

type Updater interface {
	Update(ctx context.Context, project string, platform domain.Platform) (domain.Summary, error)
}

type Notifier interface {
	Configured() bool
	PublishNotification(ctx context.Context, n neynar.Notification) (string, error)
}

// Reporter receives the finished run, e.g. to mirror it to an operator chat.
type Reporter interface {
	Report(ctx context.Context, report Report) error
}

type UserResult struct {
	FID            int64  `json:"fid"`
	Projects       int    `json:"projects"`
	Status         string `json:"status"`
	NotificationID string `json:"notificationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Report struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Users     int           `json:"users"`
	Delivered int           `json:"delivered"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Results   []UserResult  `json:"results"`
}

// Err joins every per-user failure of the run.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("fid %d: %s", res.FID, res.Error))
		}
	}
	return errors.Join(errs...)
}

type Config struct {
	Concurrency int
	TargetURL   string
}

type Job struct {
	store    Store
	updater  Updater
	notifier Notifier
	reporter Reporter
	cfg      Config
	now      func() time.Time
	log      *slog.Logger
}

// NewJob builds the digest job. reporter may be nil.
func NewJob(
	store Store,
	updater Updater,
	notifier Notifier,
	reporter Reporter,
	cfg Config,
	log *slog.Logger,
) *Job {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Job{
		store:    store,
		updater:  updater,
		notifier: notifier,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// Run sends one digest notification per user with notifications enabled.
// Failures of a single user are recorded in the report and never stop the run.
func (j *Job) Run(ctx context.Context) (Report, error) {
	if j.notifier == nil || !j.notifier.Configured() {
		return Report{}, ErrNotConfigured
	}

	report := Report{StartedAt: j.now().UTC()}

	users, err := j.store.ListNotifiableUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("list notifiable users: %w", err)
	}

	results := make([]UserResult, len(users))
	for i, u := range users {
		results[i] = UserResult{FID: u.FID, Status: StatusSkipped}
	}

	pool := pond.NewPool(j.cfg.Concurrency, pond.WithContext(ctx))
	group := pool.NewGroup()

	for i, u := range users {
		group.Submit(func() {
			results[i] = j.deliver(ctx, u)
		})
	}

	if err = group.Wait(); err != nil {
		j.log.WarnContext(ctx, "Digest run is interrupted",
			"error", err,
			"users", len(users))
	}
	pool.StopAndWait()

	report.Users = len(users)
	report.Results = results
	for _, res := range results {
		switch res.Status {
		case StatusDelivered:
			report.Delivered++
		case StatusFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}
	report.Duration = j.now().Sub(report.StartedAt)
	metrics.DigestRunDuration.Observe(report.Duration.Seconds())

	j.log.InfoContext(ctx, "Digest run is finished",
		"users", report.Users,
		"delivered", report.Delivered,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)

	if j.reporter != nil {
		if err = j.reporter.Report(ctx, report); err != nil {
			j.log.ErrorContext(ctx, "Failed to mirror digest report",
				"error", err)
		}
	}

	return report, nil
}

func (j *Job) deliver(ctx context.Context, user domain.UserSettings) (res UserResult) {
	res.FID = user.FID
	defer func() {
		metrics.NotificationsTotal.WithLabelValues(res.Status).Inc()
	}()

	entries, err := j.store.ListWatchlist(ctx, user.FID)
	if err != nil {
		j.log.ErrorContext(ctx, "Failed to list watchlist",
			"error", err,
			"fid", user.FID)
		return failed(res, err)
	}

	var d Digest
	for _, entry := range entries {
		summary, err := j.updater.Update(ctx, entry.Project, entry.Platform)
		if err != nil {
			j.log.WarnContext(ctx, "Skipping project without update",
				"error", err,
				"fid", user.FID,
				"project", entry.Project)
			continue
		}

		d.Add(entry.Project, summary.Text)
	}

	res.Projects = d.Len()
	if d.Len() == 0 {
		res.Status = StatusSkipped
		return res
	}

	body := d.String()

	res.NotificationID, err = j.notifier.PublishNotification(ctx, neynar.Notification{
		TargetFIDs: []int64{user.FID},
		Title:      NotificationTitle,
		Body:       body,
		TargetURL:  j.cfg.TargetURL,
	})
	if err != nil {
		j.log.ErrorContext(ctx, "Failed to send notification",
			"error", err,
			"fid", user.FID,
			"projects", res.Projects)
		return failed(res, err)
	}

	res.Status = StatusDelivered

	if user.DailySummaryEnabled {
		if err = j.store.InsertDailySummary(ctx, user.FID, body); err != nil {
			j.log.ErrorContext(ctx, "Failed to store daily summary",
				"error", err,
				"fid", user.FID)
			res.Error = fmt.Sprintf("store daily summary: %v", err)
		}
	}

	return res
}

func failed(res UserResult, err error) UserResult {
	res.Status = StatusFailed
	res.Error = err.Error()
	return res
}
