package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wingman/internal/domain"

	"github.com/mattn/go-sqlite3"
)

var ErrDuplicate = errors.New("entry already exists")

func (d *Database) AddWatchlistEntry(
	ctx context.Context,
	entry domain.WatchlistEntry,
) (domain.WatchlistEntry, error) {
	entry.Project = strings.TrimSpace(entry.Project)
	if entry.Project == "" {
		return domain.WatchlistEntry{}, errors.New("project is empty")
	}

	if entry.Platform == "" {
		entry.Platform = domain.PlatformX
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `insert into watchlists (fid, project, platform, description, created_at)
	values (?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		entry.FID,
		entry.Project,
		string(entry.Platform),
		nullString(entry.Description),
		entry.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.WatchlistEntry{}, ErrDuplicate
		}
		return domain.WatchlistEntry{}, fmt.Errorf("failed to execute query: %w", err)
	}

	if entry.ID, err = res.LastInsertId(); err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return entry, nil
}

func (d *Database) RemoveWatchlistEntry(ctx context.Context, fid int64, project string) (bool, error) {
	query := "delete from watchlists where fid = ? and project = ? collate nocase"

	res, err := d.db.ExecContext(ctx, query, fid, strings.TrimSpace(project))
	if err != nil {
		return false, fmt.Errorf("failed to execute query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListWatchlist returns the user's entries, newest first.
func (d *Database) ListWatchlist(ctx context.Context, fid int64) ([]domain.WatchlistEntry, error) {
	query := `select id, fid, project, platform, description, created_at
	from watchlists
	where fid = ?
	order by created_at desc, id desc`

	rows, err := d.db.QueryContext(ctx, query, fid)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"fid", fid,
				"operation", "ListWatchlist")
		}
	}()

	var entries []domain.WatchlistEntry
	for rows.Next() {
		var (
			e           domain.WatchlistEntry
			platform    string
			description sql.NullString
		)
		if err = rows.Scan(&e.ID, &e.FID, &e.Project, &platform, &description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.Project = strings.TrimSpace(e.Project)
		e.Platform = domain.Platform(platform)
		e.Description = description.String

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

func (d *Database) ListNotifiableUsers(ctx context.Context) ([]domain.UserSettings, error) {
	query := `select fid, notifications_enabled, daily_summary, real_time_alerts, email_notifications
	from users
	where notifications_enabled = 1
	order by fid`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "ListNotifiableUsers")
		}
	}()

	var users []domain.UserSettings
	for rows.Next() {
		var us domain.UserSettings
		if err = rows.Scan(
			&us.FID,
			&us.NotificationsEnabled,
			&us.DailySummaryEnabled,
			&us.RealTimeAlertsEnabled,
			&us.EmailNotificationsEnabled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		users = append(users, us)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return users, nil
}

func (d *Database) GetUserSettingsWithDefault(ctx context.Context, fid int64) (domain.UserSettings, error) {
	query := `select fid, notifications_enabled, daily_summary, real_time_alerts, email_notifications
	from users
	where fid = ?`

	var us domain.UserSettings
	err := d.db.QueryRowContext(ctx, query, fid).Scan(
		&us.FID,
		&us.NotificationsEnabled,
		&us.DailySummaryEnabled,
		&us.RealTimeAlertsEnabled,
		&us.EmailNotificationsEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultUserSettings(fid), nil
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("failed to scan row: %w", err)
	}

	return us, nil
}

// UpsertUserSetting writes a single toggle; the other columns keep their current or default values.
func (d *Database) UpsertUserSetting(
	ctx context.Context,
	fid int64,
	key domain.SettingKey,
	value bool,
) error {
	column, err := domain.ParseSettingKey(string(key))
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`insert into users (fid, %[1]s, updated_at)
	values (?, ?, ?)
	on conflict (fid) do update
	set %[1]s = excluded.%[1]s, updated_at = excluded.updated_at`, column)

	if _, err = d.db.ExecContext(ctx, query, fid, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}

	return nil
}

func (d *Database) InsertDailySummary(ctx context.Context, fid int64, summary string) error {
	query := "insert into daily_summaries (fid, summary, created_at) values (?, ?, ?)"

	if _, err := d.db.ExecContext(ctx, query, fid, summary, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}

	return nil
}

// LatestDailySummary returns nil when the user has no summary yet.
func (d *Database) LatestDailySummary(ctx context.Context, fid int64) (*domain.DailySummary, error) {
	query := `select id, fid, summary, created_at
	from daily_summaries
	where fid = ?
	order by created_at desc, id desc
	limit 1`

	var ds domain.DailySummary
	err := d.db.QueryRowContext(ctx, query, fid).Scan(&ds.ID, &ds.FID, &ds.Summary, &ds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &ds, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
