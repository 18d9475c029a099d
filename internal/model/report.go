package model

import "time"

// FlagReport is the result of flagging one document against one matrix.
type FlagReport struct {
	Document  string    `json:"document"`   // Path of the scanned document
	Matrix    string    `json:"matrix"`     // Path of the reference workbook
	ScannedAt time.Time `json:"scanned_at"` // When the scan ran
	Threshold float64   `json:"threshold"`  // Decision threshold used
	Metric    string    `json:"metric"`     // Similarity metric used

	Categories int `json:"categories"` // Categories in the matrix
	Problems   int `json:"problems"`   // Problem records in the matrix
	Sentences  int `json:"sentences"`  // Sentences in the document

	// Matches are the flagged entries in first-occurrence sentence order.
	Matches []Match `json:"matches"`

	// Annotated is the rendered text stream; not serialized.
	Annotated string `json:"-"`

	Summary *Summary `json:"summary,omitempty"` // Optional LLM summary, never affects flags
}

// Summary holds an optional LLM-written overview of the matches.
type Summary struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// FlaggedCount returns the number of distinct flagged sentence texts.
func (r *FlagReport) FlaggedCount() int {
	return len(r.Matches)
}
