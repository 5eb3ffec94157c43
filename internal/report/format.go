package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Grade buckets a [0,1] score.
type Grade string

const (
	GradeGood Grade = "good"
	GradeFair Grade = "fair"
	GradePoor Grade = "poor"
)

// ScoreGrade grades v: at least 0.7 is good, at least 0.4 is fair.
func ScoreGrade(v float64) Grade {
	switch {
	case v >= 0.7:
		return GradeGood
	case v >= 0.4:
		return GradeFair
	default:
		return GradePoor
	}
}

// FormatPercent renders a fraction as a percentage with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatRaw renders a JSON value the service may send as a number, string,
// list, or object. Strings are unquoted and numbers kept as sent.
func FormatRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "-"
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	if _, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
		return string(trimmed)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

var titleCaser = cases.Title(language.Und)

// Label turns a snake_case key into a title-cased label.
func Label(key string) string {
	return titleCaser.String(strings.ReplaceAll(strings.TrimSpace(key), "_", " "))
}

func gradeColors(grade Grade) text.Colors {
	switch grade {
	case GradeGood:
		return text.Colors{text.FgGreen}
	case GradeFair:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}

func colorScore(v float64, colorize bool) string {
	value := FormatPercent(v)
	if !colorize {
		return value
	}
	return gradeColors(ScoreGrade(v)).Sprint(value)
}
