package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
)

// Header labels recognised in the key column besides the preferred-language spellings.
const (
	LabelCommonProblems = "Common Problems"
	LabelWhy            = "Why"
	LabelResponse       = "1st response to Sponsor"
)

// Column positions within a sheet row (0-based).
const (
	colKey      = 1
	colWhy      = 2
	colResponse = 3
)

// State is the section of a sheet the scanner is currently in.
type State int

const (
	StateNone State = iota
	StatePreferredLanguage
	StateCommonProblems
)

func (s State) String() string {
	switch s {
	case StatePreferredLanguage:
		return "preferred_language"
	case StateCommonProblems:
		return "common_problems"
	default:
		return "none"
	}
}

// StepKind says what a single row contributed.
type StepKind int

const (
	StepSkip      StepKind = iota // empty key cell, or data outside any section
	StepHeader                    // row was a section header
	StepProblem                   // row produced a ProblemRecord
	StepPreferred                 // row produced a preferred-language entry
)

// Step is the output of one transition.
type Step struct {
	Kind      StepKind
	Problem   model.ProblemRecord
	Preferred string
}

// Labels resolves key-column values to section headers.
type Labels struct {
	preferred map[string]bool
}

// NewLabels builds Labels from the accepted preferred-language spellings.
func NewLabels(preferredLanguage []string) Labels {
	l := Labels{preferred: make(map[string]bool, len(preferredLanguage))}
	for _, p := range preferredLanguage {
		l.preferred[strings.TrimSpace(p)] = true
	}
	return l
}

// header reports whether key is a header and, if so, the state it selects.
func (l Labels) header(key string) (State, bool) {
	if l.preferred[key] {
		return StatePreferredLanguage, true
	}
	switch key {
	case LabelCommonProblems:
		return StateCommonProblems, true
	case LabelWhy, LabelResponse:
		return StateNone, true
	}
	return StateNone, false
}

// Transition consumes one row. Header detection runs before data
// accumulation, so a header label is never recorded as data.
func Transition(state State, row []string, labels Labels) (State, Step) {
	key := cell(row, colKey)
	if key == "" {
		return state, Step{Kind: StepSkip}
	}

	if next, ok := labels.header(key); ok {
		return next, Step{Kind: StepHeader}
	}

	switch state {
	case StateCommonProblems:
		return state, Step{
			Kind: StepProblem,
			Problem: model.ProblemRecord{
				Text:     key,
				Why:      model.StrPtr(cell(row, colWhy)),
				Response: model.StrPtr(cell(row, colResponse)),
			},
		}
	case StatePreferredLanguage:
		return state, Step{Kind: StepPreferred, Preferred: key}
	}

	return state, Step{Kind: StepSkip}
}

// cell returns the trimmed text at col, or "" when the row is too short.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// RecordExtractor turns workbook sheets into clause categories.
type RecordExtractor struct {
	cfg    model.EngineConfig
	labels Labels
	logger logging.Logger
}

// NewRecordExtractor creates an extractor for the given engine settings.
func NewRecordExtractor(cfg model.EngineConfig, logger logging.Logger) *RecordExtractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RecordExtractor{
		cfg:    cfg,
		labels: NewLabels(cfg.PreferredLanguageLabels),
		logger: logger.Named("extract"),
	}
}

// ExtractFile opens the workbook at path and extracts it.
func (e *RecordExtractor) ExtractFile(path string) (*model.Matrix, error) {
	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	m, err := e.Extract(wb)
	if err != nil {
		return nil, err
	}
	m.Source = path
	return m, nil
}

// Extract builds the matrix from every non-excluded sheet, in sheet order.
// A sheet that cannot be read aborts the whole extraction.
func (e *RecordExtractor) Extract(wb Workbook) (*model.Matrix, error) {
	m := &model.Matrix{}
	seen := make(map[string]bool)

	for _, name := range wb.SheetNames() {
		if e.cfg.IsExcluded(name) {
			e.logger.Debug("skipping excluded sheet", logging.String("sheet", name))
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		rows, err := wb.SheetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		cat := e.ExtractSheet(name, rows)
		e.logger.Debug("extracted sheet",
			logging.String("sheet", name),
			logging.Int("problems", len(cat.Problems)),
			logging.Int("preferred", len(cat.PreferredLanguage)),
		)
		m.Categories = append(m.Categories, cat)
	}

	return m, nil
}

// ExtractSheet runs the row state machine over one sheet.
func (e *RecordExtractor) ExtractSheet(name string, rows [][]string) model.Category {
	cat := model.Category{
		Name:              name,
		Problems:          []model.ProblemRecord{},
		PreferredLanguage: []string{},
	}

	state := StateNone
	for _, row := range rows {
		var step Step
		state, step = Transition(state, row, e.labels)

		switch step.Kind {
		case StepProblem:
			cat.Problems = append(cat.Problems, step.Problem)
		case StepPreferred:
			cat.PreferredLanguage = append(cat.PreferredLanguage, step.Preferred)
		}
	}

	return cat
}
