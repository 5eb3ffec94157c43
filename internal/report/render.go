package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"interviewcoach/internal/analysis"
)

// RenderOptions controls terminal output.
type RenderOptions struct {
	Color     bool
	SessionID string
}

// ShouldColorize reports whether w is an interactive terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render writes a human-readable view of result to w.
func Render(w io.Writer, result *analysis.Result, opts RenderOptions) error {
	if result == nil {
		_, err := fmt.Fprintln(w, "No analysis results available")
		return err
	}
	var b strings.Builder

	title := "Interview Analysis Results"
	if opts.SessionID != "" {
		title += " (" + opts.SessionID + ")"
	}
	writeHeader(&b, title, opts.Color)

	writeHeader(&b, "Facial Analysis", opts.Color)
	facial := result.Facial
	b.WriteString(metricTable([][2]string{
		{"Engagement", colorScore(facial.Engagement, opts.Color)},
		{"Positivity", colorScore(facial.Positivity, opts.Color)},
		{"Anxiety Hint", FormatPercent(facial.AnxietyHint)},
		{"Confidence", colorScore(facial.Confidence, opts.Color)},
	}))
	b.WriteString("\n")
	if name, value, ok := facial.DominantEmotion(); ok {
		fmt.Fprintf(&b, "Dominant emotion: %s (%s%%)\n", Label(name), strconv.FormatFloat(value, 'f', -1, 64))
	}
	if len(facial.Emotions) > 0 {
		b.WriteString(emotionTable(facial.Emotions))
		b.WriteString("\n")
	}

	writeHeader(&b, "Speech Analysis", opts.Color)
	transcript := result.Transcript
	b.WriteString(metricTable([][2]string{
		{"Filler Ratio", FormatPercent(transcript.FillerRatio)},
		{"Filler Hits", FormatRaw(transcript.FillerHits)},
		{"Mumble Score", FormatRaw(transcript.MumbleScore)},
	}))
	b.WriteString("\n")
	if body := strings.TrimSpace(transcript.FullText); body != "" {
		b.WriteString("Transcript:\n")
		b.WriteString(indent(body))
		b.WriteString("\n")
	}

	writeHeader(&b, "Coaching Advice", opts.Color)
	if tip := strings.TrimSpace(result.Coaching.Tip); tip != "" {
		b.WriteString("Key tip:\n")
		b.WriteString(indent(tip))
		b.WriteString("\n")
	}
	if len(result.Coaching.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, rec := range result.Coaching.Recommendations {
			mark := "✓"
			if opts.Color {
				mark = text.FgGreen.Sprint(mark)
			}
			fmt.Fprintf(&b, "  %s %s\n", mark, rec)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		line = text.Colors{text.FgBlue, text.Bold}.Sprint(line)
	}
	b.WriteString("\n")
	b.WriteString(line)
	b.WriteString("\n")
}

func metricTable(rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func emotionTable(emotions map[string]float64) string {
	names := make([]string, 0, len(emotions))
	for name := range emotions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if emotions[names[i]] == emotions[names[j]] {
			return names[i] < names[j]
		}
		return emotions[names[i]] > emotions[names[j]]
	})
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Emotion", "Score"})
	for _, name := range names {
		tw.AppendRow(table.Row{Label(name), strconv.FormatFloat(emotions[name], 'f', -1, 64)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
