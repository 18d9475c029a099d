// Package flagging scores every document sentence against every problem
// record of a clause matrix and keeps the ones above the threshold.
package flagging

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/clauseflag/internal/apperr"
	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/score"
	"github.com/ppiankov/clauseflag/internal/segment"
	"github.com/ppiankov/clauseflag/internal/worker"
)

// Flagger is the sentence flagging stage.
type Flagger struct {
	threshold float64
	workers   int
	metric    score.Metric
	segmenter segment.Segmenter
	logger    logging.Logger
}

// NewFlagger validates cfg and builds a Flagger.
func NewFlagger(cfg model.EngineConfig, seg segment.Segmenter, logger logging.Logger) (*Flagger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperr.InvalidConfig(err.Error())
	}
	metric, err := score.NewMetric(cfg.Metric)
	if err != nil {
		return nil, apperr.InvalidConfig(err.Error())
	}
	if seg == nil {
		return nil, apperr.InvalidConfig("segmenter is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Flagger{
		threshold: cfg.Threshold,
		workers:   cfg.Workers,
		metric:    metric,
		segmenter: seg,
		logger:    logger.Named("flagging"),
	}, nil
}

// Result is the output of one flagging run.
type Result struct {
	Sentences []model.Sentence
	Flags     model.Flags
}

// Ordered returns the matches in first-occurrence sentence order.
func (r *Result) Ordered() []model.Match {
	var out []model.Match
	seen := make(map[string]bool, len(r.Flags))
	for _, s := range r.Sentences {
		if m, ok := r.Flags[s.Text]; ok && !seen[s.Text] {
			seen[s.Text] = true
			out = append(out, m)
		}
	}
	return out
}

// hit is a sentence that cleared the threshold for one problem.
type hit struct {
	sentence int
	score    float64
}

// problemJob scores one problem record against every sentence.
type problemJob struct {
	order     int // position in category-then-problem iteration
	category  *model.Category
	problem   int
	terms     score.Terms
	sentences []score.Terms
	metric    score.Metric
	threshold float64
}

type problemResult struct {
	job  *problemJob
	hits []hit
	err  error
}

func (r *problemResult) GetError() error { return r.err }

func (j *problemJob) Execute(ctx context.Context) worker.Result {
	res := &problemResult{job: j}
	for i, st := range j.sentences {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				res.err = err
				return res
			}
		}
		s := j.metric.Compare(j.terms, st)
		if s > j.threshold {
			res.hits = append(res.hits, hit{sentence: i, score: s})
		}
	}
	return res
}

// Flag segments documentText and flags every sentence whose score against
// some problem record is strictly above the threshold.
//
// When a sentence clears the threshold for several records, the record
// visited last (category order, then problem order, then sentence order)
// wins. Sentences with identical text share one entry.
func (f *Flagger) Flag(ctx context.Context, documentText string, matrix *model.Matrix) (*Result, error) {
	start := time.Now()
	sentences := f.segmenter.Split(documentText)
	res := &Result{Sentences: sentences, Flags: make(model.Flags)}
	if matrix == nil || len(sentences) == 0 || matrix.ProblemCount() == 0 {
		return res, nil
	}

	// Each distinct string is analyzed once per run.
	sentTerms := make([]score.Terms, len(sentences))
	for i, s := range sentences {
		sentTerms[i] = f.metric.Analyze(s.Text)
	}

	var jobs []*problemJob
	for ci := range matrix.Categories {
		cat := &matrix.Categories[ci]
		for pi, p := range cat.Problems {
			jobs = append(jobs, &problemJob{
				order:     len(jobs),
				category:  cat,
				problem:   pi,
				terms:     f.metric.Analyze(p.Text),
				sentences: sentTerms,
				metric:    f.metric,
				threshold: f.threshold,
			})
		}
	}

	pool := worker.NewPool(ctx, f.workers)
	pool.Start()
	for _, j := range jobs {
		if !pool.Submit(j) {
			break
		}
	}
	raw := pool.Wait()
	if err := pool.Err(); err != nil {
		return nil, fmt.Errorf("flag sentences: %w", err)
	}

	results := make([]*problemResult, 0, len(raw))
	for _, r := range raw {
		pr := r.(*problemResult)
		if pr.err != nil {
			return nil, fmt.Errorf("flag sentences: %w", pr.err)
		}
		results = append(results, pr)
	}
	if len(results) != len(jobs) {
		return nil, fmt.Errorf("flag sentences: %d of %d jobs completed", len(results), len(jobs))
	}

	// Merge in iteration order so the winner never depends on scheduling.
	sort.Slice(results, func(a, b int) bool { return results[a].job.order < results[b].job.order })
	for _, pr := range results {
		cat := pr.job.category
		p := cat.Problems[pr.job.problem]
		for _, h := range pr.hits {
			text := sentences[h.sentence].Text
			res.Flags[text] = model.Match{
				Sentence:          text,
				Category:          cat.Name,
				Problem:           p.Text,
				PreferredLanguage: cat.PreferredLanguage,
				Why:               p.Why,
				Response:          p.Response,
				Confidence:        h.score,
			}
		}
	}

	f.logger.Debug("flagged document",
		logging.Int("sentences", len(sentences)),
		logging.Int("problems", len(jobs)),
		logging.Int("flagged", len(res.Flags)),
		logging.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// Threshold returns the configured decision threshold.
func (f *Flagger) Threshold() float64 { return f.threshold }

// MetricName returns the name of the similarity metric in use.
func (f *Flagger) MetricName() string { return f.metric.Name() }

// Segmenter returns the segmenter so rendering can reuse it.
func (f *Flagger) Segmenter() segment.Segmenter { return f.segmenter }
