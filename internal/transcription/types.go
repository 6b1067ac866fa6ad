package transcription

// Result is the canonical transcription output shared by every engine.
// The JSON field names are the service's durable compatibility surface.
type Result struct {
	// Text is the full transcript. Empty is valid; it is then derivable
	// by joining segment texts.
	Text string `json:"text"`
	// Segments contains time-aligned transcript segments in
	// chronological order.
	Segments []Segment `json:"segments"`
	// Language is the detected or requested language code, or "unknown".
	Language string `json:"language"`
	// Engine names the engine variant that produced this result.
	Engine string `json:"engine"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// ID is the engine-assigned ordinal.
	ID int `json:"id"`
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the trimmed transcribed text for this segment.
	Text string `json:"text"`
	// Words contains word-level timings. Empty when the engine does not
	// support word-level alignment.
	Words []Word `json:"words"`
}

// Word is a single token with start/end timing.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
