package ideas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"wingman/internal/domain"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048

	systemPrompt = `Write short social posts about a crypto project from its recent activity digest.

Rules:
- Exactly 3 posts, one per line, no numbering.
- Each post ≤ 240 characters.
- Start each post with 🚀, ⚠️ or 📊 matching the digest's tone.
- End each post with the project's hashtag and #Web3.
- No links, no financial advice.`
)

var (
	errNoIdeas   = errors.New("output has no ideas")
	listMarkerRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

// OpenAIGenerator asks the Responses API for ideas and uses fallback whenever that fails.
type OpenAIGenerator struct {
	client   *openai.Client
	fallback Generator
	log      *slog.Logger
}

// NewOpenAIGenerator returns a generator that only uses fallback when apiKey is empty.
func NewOpenAIGenerator(
	apiKey string,
	fallback Generator,
	log *slog.Logger,
	opts ...option.RequestOption,
) *OpenAIGenerator {
	g := &OpenAIGenerator{fallback: fallback, log: log}

	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
		g.client = &client
	}

	return g
}

func (g *OpenAIGenerator) Generate(
	ctx context.Context,
	project string,
	summary domain.Summary,
) ([]string, error) {
	if g.client == nil {
		return g.fallback.Generate(ctx, project, summary)
	}

	ideas, err := g.generate(ctx, project, summary)
	if err != nil {
		g.log.WarnContext(ctx, "Failed to generate ideas with OpenAI, using templates",
			"error", err,
			"project", project)

		return g.fallback.Generate(ctx, project, summary)
	}

	return ideas, nil
}

func (g *OpenAIGenerator) generate(
	ctx context.Context,
	project string,
	summary domain.Summary,
) ([]string, error) {
	userPromptBuilder := strings.Builder{}
	userPromptBuilder.WriteString("Project:\n")
	userPromptBuilder.WriteString(project)
	userPromptBuilder.WriteString("\nHashtags:\n")
	userPromptBuilder.WriteString(Hashtags(project))
	userPromptBuilder.WriteString("\nDigest:\n")
	userPromptBuilder.WriteString(summary.Text)

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModelGPT5Mini2025_08_07,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(userPromptBuilder.String()),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return nil, fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		ideas := ParseIdeas(resp.OutputText())
		if len(ideas) == 0 {
			return nil, fmt.Errorf("%w (status = %s)", errNoIdeas, resp.Status)
		}
		return ideas, nil
	}
}

// ParseIdeas keeps up to three non-empty lines, dropping list markers and links.
func ParseIdeas(output string) []string {
	ideas := make([]string, 0, MaxIdeas)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = listMarkerRe.ReplaceAllString(line, "")
		line = StripLinks(line)
		if line == "" {
			continue
		}

		ideas = append(ideas, line)
		if len(ideas) == MaxIdeas {
			break
		}
	}

	return ideas
}
