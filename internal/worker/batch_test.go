package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jmribera/textaudit/internal/model"
)

type fakeAuditor struct {
	failPaths map[string]bool
}

func (f *fakeAuditor) AuditFile(ctx context.Context, path string) (*model.Report, error) {
	if f.failPaths[path] {
		return nil, errors.New("audit failed")
	}
	return &model.Report{DocumentName: filepath.Base(path)}, nil
}

func TestProcessPaths(t *testing.T) {
	b := NewBatchProcessor(&fakeAuditor{}, 2)

	paths := []string{"a.pdf", "b.pdf", "c.pdf"}
	results := b.ProcessPaths(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	var got []string
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("%s: unexpected error %v", r.Path, r.Error)
		}
		got = append(got, r.Path)
	}
	sort.Strings(got)
	for i, want := range paths {
		if got[i] != want {
			t.Errorf("paths[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestProcessPathsFailureIsolation(t *testing.T) {
	b := NewBatchProcessor(&fakeAuditor{failPaths: map[string]bool{"bad.pdf": true}}, 2)

	results := b.ProcessPaths(context.Background(), []string{"good.pdf", "bad.pdf"})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
			if r.Path != "bad.pdf" {
				t.Errorf("wrong path failed: %s", r.Path)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failures = %d, want 1", failed)
	}
}

func TestProcessPathsEmpty(t *testing.T) {
	b := NewBatchProcessor(&fakeAuditor{}, 2)
	if results := b.ProcessPaths(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "docs.txt")
	content := "a.pdf\n\n# comment\nb.pdf\na.pdf\n  c.pdf  \n"
	if err := os.WriteFile(listPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		t.Fatalf("ReadPathsFromFile: %v", err)
	}

	want := []string{"a.pdf", "b.pdf", "c.pdf"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReadPathsFromFileMissing(t *testing.T) {
	if _, err := ReadPathsFromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "docs.txt")
	if err := os.WriteFile(listPath, []byte("x.pdf\ny.pdf\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBatchProcessor(&fakeAuditor{}, 1)
	results, err := b.ProcessFile(context.Background(), listPath)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}
