// Package pipeline wires extraction, flagging and rendering into the scan
// workflow used by the CLI.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/clauseflag/internal/cache"
	"github.com/ppiankov/clauseflag/internal/extract"
	"github.com/ppiankov/clauseflag/internal/flagging"
	"github.com/ppiankov/clauseflag/internal/llm"
	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/render"
	"github.com/ppiankov/clauseflag/internal/segment"
	"github.com/ppiankov/clauseflag/internal/textsrc"
	"github.com/ppiankov/clauseflag/internal/worker"
)

// Pipeline orchestrates a scan: load matrix, read document, flag, render.
type Pipeline struct {
	config     *model.Config
	extractor  *extract.RecordExtractor
	flagger    *flagging.Flagger
	annotator  *render.Annotator
	writer     *render.Writer
	store      cache.Store
	summarizer *llm.Summarizer // nil when summaries are disabled
	logger     logging.Logger

	mu         sync.RWMutex
	matrix     *model.Matrix
	matrixPath string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore replaces the matrix cache built from config.
func WithStore(s cache.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithSummarizer attaches an LLM summarizer.
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// NewPipeline builds a pipeline from cfg. seg may be nil to use the
// default English segmenter.
func NewPipeline(cfg *model.Config, seg segment.Segmenter, logger logging.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if seg == nil {
		punkt, err := segment.Default()
		if err != nil {
			return nil, fmt.Errorf("load segmenter: %w", err)
		}
		seg = punkt
	}

	flagger, err := flagging.NewFlagger(cfg.Engine, seg, logger)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:    cfg,
		extractor: extract.NewRecordExtractor(cfg.Engine, logger),
		flagger:   flagger,
		annotator: render.NewAnnotator(flagger.Segmenter()),
		writer:    render.NewWriter(),
		store:     cache.New(cfg.Cache),
		logger:    logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// LoadMatrix extracts the clause matrix from a workbook, going through the
// cache when enabled.
func (p *Pipeline) LoadMatrix(ctx context.Context, path string) (*model.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, keyErr := cache.Key(path, p.config.Engine.ExcludedSheets, p.config.Engine.PreferredLanguageLabels)
	if keyErr == nil {
		if m, ok := p.store.Load(key); ok {
			p.logger.Debug("matrix cache hit", logging.String("path", path))
			return m, nil
		}
	}

	start := time.Now()
	m, err := p.extractor.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	p.logger.Info("loaded clause matrix",
		logging.String("path", path),
		logging.Int("categories", len(m.Categories)),
		logging.Int("problems", m.ProblemCount()),
		logging.Duration("elapsed", time.Since(start)),
	)

	if keyErr == nil {
		if err := p.store.Save(key, m); err != nil {
			p.logger.Warn("matrix cache write failed", logging.String("path", path), logging.Err(err))
		}
	}
	return m, nil
}

// UseMatrix loads path and makes it the matrix for subsequent ScanFile calls.
func (p *Pipeline) UseMatrix(ctx context.Context, path string) (*model.Matrix, error) {
	m, err := p.LoadMatrix(ctx, path)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.matrix, p.matrixPath = m, path
	p.mu.Unlock()
	return m, nil
}

// ScanFile flags the document at path against the current matrix.
func (p *Pipeline) ScanFile(ctx context.Context, path string) (*model.FlagReport, error) {
	text, err := textsrc.Load(path)
	if err != nil {
		return nil, err
	}
	return p.ScanText(ctx, path, text)
}

// ScanText flags already-loaded document text. name is recorded as the
// report's document.
func (p *Pipeline) ScanText(ctx context.Context, name, text string) (*model.FlagReport, error) {
	p.mu.RLock()
	matrix, matrixPath := p.matrix, p.matrixPath
	p.mu.RUnlock()
	if matrix == nil {
		return nil, fmt.Errorf("no clause matrix loaded")
	}

	res, err := p.flagger.Flag(ctx, text, matrix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}

	report := &model.FlagReport{
		Document:   name,
		Matrix:     matrixPath,
		ScannedAt:  time.Now().UTC(),
		Threshold:  p.flagger.Threshold(),
		Metric:     p.flagger.MetricName(),
		Categories: len(matrix.Categories),
		Problems:   matrix.ProblemCount(),
		Sentences:  len(res.Sentences),
		Matches:    res.Ordered(),
		Annotated:  p.annotator.Render(text, res.Flags),
	}
	if report.Matches == nil {
		report.Matches = []model.Match{}
	}

	// Summaries come after flagging and never change the matches.
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.Summarize(ctx, report)
		if err != nil {
			p.logger.Warn("LLM summary failed", logging.String("document", name), logging.Err(err))
		} else {
			report.Summary = summary
		}
	}

	p.logger.Debug("scanned document",
		logging.String("document", name),
		logging.Int("sentences", report.Sentences),
		logging.Int("flagged", report.FlaggedCount()),
	)
	return report, nil
}

// Outputs are the file paths written for one report.
type Outputs struct {
	Text    string
	JSON    string // empty when JSON output is off
	Summary string
}

// OutputsFor derives output paths for a document: flagged_<base>.txt in dir,
// plus .json and .summary.md siblings.
func OutputsFor(dir, documentPath string, withJSON bool) Outputs {
	return outputsForStem(dir, stemOf(documentPath), withJSON)
}

// OutputsForAll derives output paths for documents written to one
// directory. The first document with a given name keeps the plain name;
// later ones get a numeric suffix (flagged_contract-2.txt) that no other
// document in the list uses. Names are compared case-insensitively.
func OutputsForAll(dir string, documentPaths []string, withJSON bool) []Outputs {
	reserved := make(map[string]bool, len(documentPaths))
	for _, path := range documentPaths {
		reserved[strings.ToLower(stemOf(path))] = true
	}

	used := make(map[string]bool, len(documentPaths))
	out := make([]Outputs, len(documentPaths))
	for i, path := range documentPaths {
		stem := stemOf(path)
		if used[strings.ToLower(stem)] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", stem, n)
				key := strings.ToLower(candidate)
				if !used[key] && !reserved[key] {
					stem = candidate
					break
				}
			}
		}
		used[strings.ToLower(stem)] = true
		out[i] = outputsForStem(dir, stem, withJSON)
	}
	return out
}

func stemOf(documentPath string) string {
	base := filepath.Base(documentPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func outputsForStem(dir, stem string, withJSON bool) Outputs {
	text := filepath.Join(dir, "flagged_"+stem+".txt")

	out := Outputs{
		Text:    text,
		Summary: strings.TrimSuffix(text, ".txt") + ".summary.md",
	}
	if withJSON {
		out.JSON = strings.TrimSuffix(text, ".txt") + ".json"
	}
	return out
}

// WriteReport writes the annotated text, and the JSON report and summary
// when requested. Errors carry CodeWriteFailure.
func (p *Pipeline) WriteReport(report *model.FlagReport, out Outputs) error {
	if err := p.writer.WriteText(out.Text, report.Annotated); err != nil {
		return err
	}
	if out.JSON != "" {
		if err := p.writer.WriteJSON(report, out.JSON); err != nil {
			return err
		}
	}
	if report.Summary != nil && out.Summary != "" {
		if err := p.writer.WriteSummaryMarkdown(report, out.Summary); err != nil {
			return err
		}
	}
	p.logger.Debug("wrote report", logging.String("path", out.Text))
	return nil
}

// Batch returns a processor that scans documents concurrently with this pipeline.
func (p *Pipeline) Batch(concurrency int) *worker.BatchProcessor {
	return worker.NewBatchProcessor(p, concurrency)
}
