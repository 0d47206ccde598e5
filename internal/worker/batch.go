package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmribera/textaudit/internal/model"
)

// Auditor analyzes one PDF document from disk.
type Auditor interface {
	AuditFile(ctx context.Context, path string) (*model.Report, error)
}

// AuditJob analyzes a single document.
type AuditJob struct {
	Path    string
	Auditor Auditor
}

// Execute runs the audit job.
func (j *AuditJob) Execute(ctx context.Context) Result {
	report, err := j.Auditor.AuditFile(ctx, j.Path)
	if err != nil {
		return &AuditResult{Path: j.Path, Error: err}
	}
	return &AuditResult{Path: j.Path, Report: report}
}

// AuditResult is the outcome of auditing one document.
type AuditResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the audit result.
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple documents concurrently. One failed
// document never aborts the batch.
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(auditor Auditor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
	}
}

// ProcessPaths audits the given documents concurrently.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*AuditResult {
	if len(paths) == 0 {
		return []*AuditResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	go func() {
		for _, path := range paths {
			pool.Submit(&AuditJob{Path: path, Auditor: b.auditor})
		}
	}()

	results := pool.WaitFor(len(paths))

	auditResults := make([]*AuditResult, len(results))
	for i, result := range results {
		auditResults[i] = result.(*AuditResult)
	}

	return auditResults
}

// ProcessFile reads document paths from a list file and audits them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AuditResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read document list: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file, one per line.
// Empty lines and #-comments are skipped; duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
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
