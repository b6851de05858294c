package insights

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wingman/internal/domain"
	"wingman/internal/metrics"
	"wingman/internal/source"
)

const outcomeCached = "cached"

type Sources struct {
	X         source.Source
	Farcaster source.Source
}

// Service answers "what is this project posting about" for one handle.
// It never fails the caller: every upstream problem becomes a non-live fallback summary.
type Service struct {
	dict     Dictionaries
	sources  Sources
	cache    SummaryCache
	cacheTTL time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewService(
	sources Sources,
	cache SummaryCache,
	cacheTTL time.Duration,
	log *slog.Logger,
) *Service {
	return &Service{
		dict:     DefaultDictionaries(),
		sources:  sources,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
		log:      log,
	}
}

func (s *Service) Dictionaries() Dictionaries {
	return s.dict
}

// NormalizeProject trims the handle and makes sure it carries exactly one leading @.
func NormalizeProject(project string) string {
	project = strings.TrimLeft(strings.TrimSpace(project), "@")
	if project == "" {
		return ""
	}
	return "@" + project
}

// Update returns the summary for project. The error is non-nil only when the
// platform's credentials are missing; the returned summary is a usable fallback even then.
func (s *Service) Update(
	ctx context.Context,
	project string,
	platform domain.Platform,
) (domain.Summary, error) {
	project = NormalizeProject(project)
	key := CacheKey(project, platform)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.UpdatesTotal.WithLabelValues(string(platform), outcomeCached).Inc()
			return cached, nil
		}
	}

	src := s.sourceFor(platform)
	if src == nil {
		summary := FallbackSummary(project, domain.ErrorTypeAuthMissing, source.ErrMissingToken)
		s.record(platform, summary)
		return summary, source.ErrMissingToken
	}

	timeline, err := src.Timeline(ctx, project)
	if err == nil {
		var summary domain.Summary
		summary, err = s.dict.Summarize(project, timeline.Posts)
		if err == nil {
			summary.UserID = timeline.UserID
			if s.cache != nil {
				s.cache.Set(ctx, key, summary, s.cacheTTL)
			}
			s.record(platform, summary)
			return summary, nil
		}
	}

	summary, err := s.fallback(ctx, project, platform, err)
	s.record(platform, summary)

	return summary, err
}

func (s *Service) fallback(
	ctx context.Context,
	project string,
	platform domain.Platform,
	err error,
) (domain.Summary, error) {
	var rateLimitErr *source.RateLimitError

	switch {
	case errors.As(err, &rateLimitErr):
		s.log.WarnContext(ctx, "Upstream rate limit is hit",
			"project", project,
			"platform", platform,
			"source", rateLimitErr.Source,
			"reset", rateLimitErr.Reset)

		return RateLimitedSummary(project, rateLimitErr.Reset, s.now()), nil

	case errors.Is(err, source.ErrMissingToken):
		s.log.ErrorContext(ctx, "Upstream token is missing",
			"project", project,
			"platform", platform)

		return FallbackSummary(project, domain.ErrorTypeAuthMissing, err), err

	case errors.Is(err, source.ErrNotFound):
		s.log.InfoContext(ctx, "Project account is not found",
			"error", err,
			"project", project,
			"platform", platform)

		return FallbackSummary(project, domain.ErrorTypeNotFound, err), nil

	case errors.Is(err, source.ErrNoRecentPosts), errors.Is(err, ErrNoRecentPosts):
		s.log.InfoContext(ctx, "Project has no recent posts",
			"project", project,
			"platform", platform)

		return FallbackSummary(project, domain.ErrorTypeNoContent, ErrNoRecentPosts), nil

	default:
		s.log.ErrorContext(ctx, "Failed to fetch project timeline",
			"error", err,
			"project", project,
			"platform", platform)

		return FallbackSummary(project, domain.ErrorTypeUpstream, err), nil
	}
}

func (s *Service) sourceFor(platform domain.Platform) source.Source {
	switch platform {
	case domain.PlatformFarcaster:
		return s.sources.Farcaster
	default:
		return s.sources.X
	}
}

func (s *Service) record(platform domain.Platform, summary domain.Summary) {
	outcome := "live"
	if !summary.IsLive {
		outcome = summary.ErrorType
	}
	metrics.UpdatesTotal.WithLabelValues(string(platform), outcome).Inc()
}
