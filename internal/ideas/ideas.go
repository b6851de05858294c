package ideas

import (
	"context"
	"fmt"
	"strings"

	"wingman/internal/domain"
	"wingman/internal/insights"

	"mvdan.cc/xurls/v2"
)

const MaxIdeas = 3

type Generator interface {
	Generate(ctx context.Context, project string, summary domain.Summary) ([]string, error)
}

type tone struct {
	name   string
	symbol string
}

var (
	toneBullish  = tone{name: "bullish", symbol: "🚀"}
	toneCautious = tone{name: "cautious", symbol: "⚠️"}
	toneNeutral  = tone{name: "neutral", symbol: "📊"}

	linkRe = xurls.Relaxed()
)

var templates = [MaxIdeas]string{
	"%[1]s A %[2]s take on %[3]s: %[4]s Here is why it matters.",
	"%[1]s Thread idea for %[3]s followers: %[4]s What's your read?",
	"%[1]s Keeping %[3]s on the radar. %[4]s",
}

const emptyHighlight = "Nothing new this week, time to ask the team what's next."

// TemplateGenerator writes ideas offline from the summary's own lines.
type TemplateGenerator struct {
	dict insights.Dictionaries
}

func NewTemplateGenerator(dict insights.Dictionaries) *TemplateGenerator {
	return &TemplateGenerator{dict: dict}
}

func (g *TemplateGenerator) Generate(
	_ context.Context,
	project string,
	summary domain.Summary,
) ([]string, error) {
	project = insights.NormalizeProject(project)
	t := g.tone(summary.Text)
	highlights := Highlights(summary)
	tags := Hashtags(project)

	ideas := make([]string, 0, MaxIdeas)
	for i, tmpl := range templates {
		highlight := emptyHighlight
		if i < len(highlights) {
			highlight = highlights[i]
		}

		idea := fmt.Sprintf(tmpl, t.symbol, t.name, project, highlight)
		ideas = append(ideas, idea+" "+tags)
	}

	return ideas, nil
}

func (g *TemplateGenerator) tone(text string) tone {
	switch score := g.dict.Score(text); {
	case score > 0:
		return toneBullish
	case score < 0:
		return toneCautious
	default:
		return toneNeutral
	}
}

// Highlights returns up to three summary lines without links.
func Highlights(summary domain.Summary) []string {
	var lines []string
	if len(summary.Lines) > 0 {
		for _, l := range summary.Lines {
			lines = append(lines, l.Text)
		}
	} else {
		all := strings.Split(summary.Text, "\n")
		if len(all) > 1 {
			lines = all[1:]
		}
	}

	out := make([]string, 0, MaxIdeas)
	for _, line := range lines {
		line = StripLinks(line)
		if line == "" {
			continue
		}

		out = append(out, line)
		if len(out) == MaxIdeas {
			break
		}
	}

	return out
}

func StripLinks(text string) string {
	return strings.Join(strings.Fields(linkRe.ReplaceAllString(text, "")), " ")
}

// Hashtags derives tags from the project handle.
func Hashtags(project string) string {
	name := strings.TrimPrefix(insights.NormalizeProject(project), "@")
	if name == "" {
		return "#Web3"
	}
	return "#" + name + " #Web3"
}
