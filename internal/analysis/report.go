package analysis

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`,
)

// escapeMarkdown keeps user supplied text such as exercise names from being parsed as markup.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// MarkdownReport renders the analysis as a Markdown document.
func MarkdownReport(a EnhancedAnalysis) string {
	var b strings.Builder
	b.WriteString("# Workout analysis\n\n")
	fmt.Fprintf(&b, "**Overall score:** %d/100\n\n", a.OverallScore)
	fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(a.Summary))
	if a.SessionsAnalyzed > 0 {
		fmt.Fprintf(&b, "%d sessions from %s to %s.\n\n", a.SessionsAnalyzed,
			a.TimeRange.Start.Format("2006-01-02"), a.TimeRange.End.Format("2006-01-02"))
	}

	b.WriteString("## Progress\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Strength | %.1f%% |\n", a.Progress.StrengthProgress)
	fmt.Fprintf(&b, "| Volume | %.1f%% |\n", a.Progress.VolumeProgress)
	fmt.Fprintf(&b, "| Consistency | %d/100 |\n", a.Progress.ConsistencyScore)
	fmt.Fprintf(&b, "| Recovery | %d/100 |\n\n", a.Progress.RecoveryScore)

	if len(a.Patterns) > 0 {
		b.WriteString("## Exercises\n\n")
		b.WriteString("| Exercise | Pattern | Severity | Sessions |\n|---|---|---|---|\n")
		for _, p := range a.Patterns {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", escapeMarkdown(p.ExerciseName), p.Type, p.Severity, p.DataPoints)
		}
		b.WriteString("\n")
	}

	if len(a.Predictions) > 0 {
		b.WriteString("## Next session\n\n")
		b.WriteString("| Exercise | Current | Suggested | Confidence |\n|---|---|---|---|\n")
		for _, key := range slices.Sorted(maps.Keys(a.Predictions)) {
			p := a.Predictions[key]
			fmt.Fprintf(&b, "| %s | %s | %s | %.0f%% |\n", escapeMarkdown(p.ExerciseName),
				formatWeight(p.CurrentWeight), formatWeight(p.PredictedWeight), p.Confidence*100) //nolint:mnd // percent.
		}
		b.WriteString("\n")
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range a.Recommendations {
			fmt.Fprintf(&b, "### %s (%s)\n\n", escapeMarkdown(r.Title), r.Priority)
			fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(r.Description))
			for _, item := range r.ActionItems {
				fmt.Fprintf(&b, "- %s\n", escapeMarkdown(item))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// HTMLReport renders the Markdown report to an HTML fragment. Raw HTML in the input is omitted.
func HTMLReport(a EnhancedAnalysis) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportMarkdown.Convert([]byte(MarkdownReport(a)), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
