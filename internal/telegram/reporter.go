package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"wingman/internal/digest"
	"wingman/internal/ratelimiter"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	messageMaxLength = 4096

	reportHeader         = "📬 *Daily digest*\n\n"
	reportContinueHeader = "📬 *Daily digest \\(continue\\)*\n\n"
)

// Reporter mirrors digest runs to an operator chat.
type Reporter struct {
	sender ratelimiter.Sender
	chatID int64
	log    *slog.Logger
}

// NewReporter connects to the Bot API without calling getMe, so a bad token
// only shows up on the first report.
func NewReporter(token string, chatID int64, log *slog.Logger) (*Reporter, *ratelimiter.RateLimiter, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, nil, fmt.Errorf("create bot: %w", err)
	}

	rl := ratelimiter.New(b, log)

	return NewReporterWithSender(rl, chatID, log), rl, nil
}

func NewReporterWithSender(sender ratelimiter.Sender, chatID int64, log *slog.Logger) *Reporter {
	return &Reporter{sender: sender, chatID: chatID, log: log}
}

func (r *Reporter) Report(ctx context.Context, report digest.Report) error {
	var errs []error

	for _, text := range FormatReport(report) {
		if _, err := r.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    r.chatID,
			Text:      text,
			ParseMode: models.ParseModeMarkdown,
		}); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "Digest report is mirrored",
		"chatID", r.chatID,
		"users", report.Users)

	return nil
}

// FormatReport renders the run as MarkdownV2 messages that each fit Telegram's length limit.
func FormatReport(report digest.Report) []string {
	var messages []string
	var current strings.Builder

	current.WriteString(reportHeader)
	current.WriteString(bot.EscapeMarkdown(fmt.Sprintf(
		"Users: %d, delivered: %d, skipped: %d, failed: %d (%s)",
		report.Users,
		report.Delivered,
		report.Skipped,
		report.Failed,
		report.StartedAt.Format("Jan 2 15:04 MST"),
	)))
	current.WriteString("\n\n")

	for _, res := range report.Results {
		if res.Status != digest.StatusFailed {
			continue
		}

		line := fmt.Sprintf("– fid %d: %s\n", res.FID, bot.EscapeMarkdown(res.Error))

		if current.Len()+len(line) > messageMaxLength {
			messages = append(messages, current.String())
			current.Reset()
			current.WriteString(reportContinueHeader)
		}

		current.WriteString(line)
	}

	return append(messages, current.String())
}
