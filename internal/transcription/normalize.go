package transcription

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawDocument mirrors the JSON artifact engines write to the scratch
// directory. Every field is optional; Normalize supplies defaults.
type rawDocument struct {
	Text     string       `json:"text"`
	Segments []rawSegment `json:"segments"`
	Language string       `json:"language"`
}

type rawSegment struct {
	ID    int       `json:"id"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Text  string    `json:"text"`
	Words []rawWord `json:"words"`
}

type rawWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Normalize converts a raw engine JSON document into the canonical Result,
// stamped with the given engine tag. It is a pure function of its input:
// missing segment fields default to zero values, segment text is trimmed,
// a segment without words normalizes to an empty word list, and an absent
// or empty top-level text is derived by joining segment texts with single
// spaces in order.
func Normalize(raw []byte, engine string) (*Result, error) {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("transcription: parse engine output: %w", err)
	}

	segments := make([]Segment, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		words := make([]Word, 0, len(seg.Words))
		for _, w := range seg.Words {
			words = append(words, Word{
				Word:  w.Word,
				Start: w.Start,
				End:   w.End,
			})
		}
		segments = append(segments, Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
			Words: words,
		})
	}

	text := strings.TrimSpace(doc.Text)
	if text == "" {
		// Some engines emit only segments; the joined segment texts are
		// the only usable end-to-end transcript in that case.
		parts := make([]string, len(segments))
		for i, s := range segments {
			parts[i] = s.Text
		}
		text = strings.Join(parts, " ")
	}

	language := doc.Language
	if language == "" {
		language = "unknown"
	}

	return &Result{
		Text:     text,
		Segments: segments,
		Language: language,
		Engine:   engine,
	}, nil
}
