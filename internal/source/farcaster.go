package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wingman/internal/domain"
	"wingman/internal/neynar"
)

const (
	farcasterCastLimit     = 5
	farcasterResetFallback = time.Minute
)

type FarcasterSource struct {
	client *neynar.Client
	now    func() time.Time
}

func NewFarcasterSource(client *neynar.Client) *FarcasterSource {
	return &FarcasterSource{client: client, now: time.Now}
}

func (s *FarcasterSource) Timeline(ctx context.Context, handle string) (Timeline, error) {
	if !s.client.Configured() {
		return Timeline{}, ErrMissingToken
	}

	user, err := s.client.UserByUsername(ctx, Username(handle))
	if err != nil {
		return Timeline{}, s.mapErr(err)
	}

	casts, err := s.client.Casts(ctx, user.FID, farcasterCastLimit)
	if err != nil {
		return Timeline{}, s.mapErr(err)
	}

	userID := strconv.FormatInt(user.FID, 10)
	if len(casts) == 0 {
		return Timeline{UserID: userID}, ErrNoRecentPosts
	}

	posts := make([]domain.Post, 0, len(casts))
	for _, cast := range casts {
		posts = append(posts, domain.Post{
			ID:        cast.Hash,
			Text:      cast.Text,
			LikeCount: cast.Reactions.LikesCount,
			CreatedAt: cast.Timestamp,
		})
	}

	return Timeline{UserID: userID, Posts: posts}, nil
}

func (s *FarcasterSource) mapErr(err error) error {
	if errors.Is(err, neynar.ErrUserNotFound) {
		return fmt.Errorf("farcaster: %w", ErrNotFound)
	}

	var statusErr *neynar.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests {
		return &RateLimitError{Source: "neynar", Reset: s.now().Add(farcasterResetFallback)}
	}

	return err
}
