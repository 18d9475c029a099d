package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/clauseflag/internal/model"
)

// Scanner flags one document file.
type Scanner interface {
	ScanFile(ctx context.Context, path string) (*model.FlagReport, error)
}

// ScanJob scans a single document
type ScanJob struct {
	Index   int
	Path    string
	Scanner Scanner
}

// Execute executes the scan job
func (j *ScanJob) Execute(ctx context.Context) Result {
	report, err := j.Scanner.ScanFile(ctx, j.Path)
	return &ScanResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// ScanResult is the outcome of one document in a batch
type ScanResult struct {
	Index  int
	Path   string
	Report *model.FlagReport
	Error  error
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many documents concurrently against one matrix.
// A failed document does not stop the others.
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
}

// ProcessPaths scans every path and returns results in input order.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ScanResult {
	if len(paths) == 0 {
		return []*ScanResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		job := &ScanJob{
			Index:   i,
			Path:    path,
			Scanner: b.scanner,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	scanResults := make([]*ScanResult, len(results))
	for i, result := range results {
		scanResults[i] = result.(*ScanResult)
	}
	sort.Slice(scanResults, func(a, c int) bool { return scanResults[a].Index < scanResults[c].Index })

	// Paths never picked up because the context ended still get a result.
	if len(scanResults) < len(paths) && ctx.Err() != nil {
		done := make(map[int]bool, len(scanResults))
		for _, r := range scanResults {
			done[r.Index] = true
		}
		for i, path := range paths {
			if !done[i] {
				scanResults = append(scanResults, &ScanResult{Index: i, Path: path, Error: ctx.Err()})
			}
		}
		sort.Slice(scanResults, func(a, c int) bool { return scanResults[a].Index < scanResults[c].Index })
	}

	return scanResults
}

// ProcessFile reads document paths from a list file and scans them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*ScanResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read document list: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths (one per line). Blank lines and
// # comments are skipped, duplicates dropped, and relative paths resolved
// against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
