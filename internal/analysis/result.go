package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Section keys the analysis service must return.
const (
	KeyFacial     = "facial_analysis"
	KeyTranscript = "transcript_analysis"
	KeyCoaching   = "coaching_advice"
)

// Facial holds the facial-analysis metrics. Scores are fractions in [0,1].
type Facial struct {
	Confidence  float64            `json:"confidence"`
	Engagement  float64            `json:"engagement"`
	Positivity  float64            `json:"positivity"`
	AnxietyHint float64            `json:"anxiety_hint"`
	Emotions    map[string]float64 `json:"emotions"`
}

// Transcript holds the speech-analysis metrics.
type Transcript struct {
	FillerHits  json.RawMessage `json:"filler_hits"`
	FillerRatio float64         `json:"filler_ratio"`
	FullText    string          `json:"full_text"`
	MumbleScore json.RawMessage `json:"mumble_score"`
}

// Coaching holds coaching advice text and recommendations.
type Coaching struct {
	AnxietyScore    float64  `json:"anxiety_score"`
	ConfidenceScore float64  `json:"confidence_score"`
	Tip             string   `json:"tip"`
	Recommendations []string `json:"recommendations"`
}

// Result is a parsed analysis response. Raw keeps the body exactly as
// received; the typed sections are a read-only view for rendering.
type Result struct {
	Facial     Facial
	Transcript Transcript
	Coaching   Coaching
	Raw        json.RawMessage
}

// Parse decodes an analysis response body. All three sections must be present
// and be JSON objects. The typed view is best effort: a field whose JSON type
// does not match is left at its zero value and remains available through Raw.
func Parse(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty analysis response")
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &sections); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	for _, key := range []string{KeyFacial, KeyTranscript, KeyCoaching} {
		raw, ok := sections[key]
		if !ok {
			return nil, fmt.Errorf("analysis response missing %q", key)
		}
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
			return nil, fmt.Errorf("analysis response %q is not an object", key)
		}
	}

	result := &Result{Raw: append(json.RawMessage(nil), trimmed...)}
	facial := fields(sections[KeyFacial])
	result.Facial = Facial{
		Confidence:  number(facial["confidence"]),
		Engagement:  number(facial["engagement"]),
		Positivity:  number(facial["positivity"]),
		AnxietyHint: number(facial["anxiety_hint"]),
		Emotions:    numberMap(facial["emotions"]),
	}
	transcript := fields(sections[KeyTranscript])
	result.Transcript = Transcript{
		FillerHits:  transcript["filler_hits"],
		FillerRatio: number(transcript["filler_ratio"]),
		FullText:    text(transcript["full_text"]),
		MumbleScore: transcript["mumble_score"],
	}
	coaching := fields(sections[KeyCoaching])
	result.Coaching = Coaching{
		AnxietyScore:    number(coaching["anxiety_score"]),
		ConfidenceScore: number(coaching["confidence_score"]),
		Tip:             text(coaching["tip"]),
		Recommendations: textList(coaching["recommendations"]),
	}
	return result, nil
}

func fields(raw json.RawMessage) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	_ = json.Unmarshal(raw, &out)
	return out
}

// number accepts JSON numbers and numeric strings.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return parsed
		}
	}
	return 0
}

func numberMap(raw json.RawMessage) map[string]float64 {
	entries := fields(raw)
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]float64, len(entries))
	for key, value := range entries {
		var n float64
		if err := json.Unmarshal(value, &n); err == nil {
			out[key] = n
			continue
		}
		var str string
		if err := json.Unmarshal(value, &str); err == nil {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
				out[key] = parsed
			}
		}
	}
	return out
}

func text(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return ""
}

// textList accepts a list of strings or a single string. Non-string list
// entries are skipped.
func textList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	if single := text(raw); single != "" {
		return []string{single}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str := text(item); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// Document returns the response as a generic JSON value.
func (r *Result) Document() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(r.Raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalJSON emits the response body unchanged.
func (r *Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// DominantEmotion returns the emotion with the highest score. Ties resolve to
// the alphabetically first name so output is stable.
func (f Facial) DominantEmotion() (string, float64, bool) {
	name := ""
	best := 0.0
	found := false
	for emotion, value := range f.Emotions {
		if !found || value > best || (value == best && emotion < name) {
			name, best, found = emotion, value, true
		}
	}
	return name, best, found
}
