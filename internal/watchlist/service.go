package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"wingman/internal/database"
	"wingman/internal/domain"
)

type Store interface {
	AddWatchlistEntry(ctx context.Context, entry domain.WatchlistEntry) (domain.WatchlistEntry, error)
	RemoveWatchlistEntry(ctx context.Context, fid int64, project string) (bool, error)
	ListWatchlist(ctx context.Context, fid int64) ([]domain.WatchlistEntry, error)
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) List(ctx context.Context, fid int64) ([]domain.WatchlistEntry, error) {
	if fid <= 0 {
		return nil, authError()
	}

	entries, err := s.store.ListWatchlist(ctx, fid)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	return entries, nil
}

// Add validates the handle and checks the user's current watchlist before inserting.
// Validation problems come back as *domain.ValidationError and never reach the store's insert.
func (s *Service) Add(ctx context.Context, entry domain.WatchlistEntry) (domain.WatchlistEntry, error) {
	if entry.FID <= 0 {
		return domain.WatchlistEntry{}, authError()
	}

	entry.Project = strings.TrimSpace(entry.Project)
	entry.Description = strings.TrimSpace(entry.Description)

	if fieldErrs := ValidateHandle(entry.Project); len(fieldErrs) > 0 {
		return domain.WatchlistEntry{}, &domain.ValidationError{Fields: fieldErrs}
	}

	if entry.Platform == "" {
		entry.Platform = domain.PlatformX
	}

	existing, err := s.store.ListWatchlist(ctx, entry.FID)
	if err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("list watchlist: %w", err)
	}

	for _, e := range existing {
		if SameHandle(e.Project, entry.Project) {
			return domain.WatchlistEntry{}, duplicateError()
		}
	}

	added, err := s.store.AddWatchlistEntry(ctx, entry)
	if errors.Is(err, database.ErrDuplicate) {
		return domain.WatchlistEntry{}, duplicateError()
	}
	if err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("add watchlist entry: %w", err)
	}

	s.log.InfoContext(ctx, "Project is added to watchlist",
		"fid", added.FID,
		"project", added.Project,
		"platform", added.Platform)

	return added, nil
}

func (s *Service) Remove(ctx context.Context, fid int64, project string) (bool, error) {
	if fid <= 0 {
		return false, authError()
	}

	project = strings.TrimSpace(project)
	if project == "" {
		return false, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   FieldProjectHandle,
			Message: "Project handle is required",
		}}}
	}

	removed, err := s.store.RemoveWatchlistEntry(ctx, fid, project)
	if err != nil {
		return false, fmt.Errorf("remove watchlist entry: %w", err)
	}

	if removed {
		s.log.InfoContext(ctx, "Project is removed from watchlist",
			"fid", fid,
			"project", project)
	}

	return removed, nil
}

func authError() *domain.ValidationError {
	return &domain.ValidationError{Fields: []domain.FieldError{{
		Field:   FieldAuth,
		Message: "Please connect your Farcaster account first",
	}}}
}

func duplicateError() *domain.ValidationError {
	return &domain.ValidationError{Fields: []domain.FieldError{{
		Field:   FieldProjectHandle,
		Message: "This project is already in your watchlist",
	}}}
}
