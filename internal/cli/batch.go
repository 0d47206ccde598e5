package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmribera/textaudit/internal/pipeline"
	"github.com/jmribera/textaudit/internal/report"
	"github.com/jmribera/textaudit/internal/score"
	"github.com/jmribera/textaudit/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple PDFs from a list file in parallel",
	Long: `Batch analyzes multiple documents concurrently:
- Read document paths from the input file (one per line)
- Analyze documents in parallel with configurable worker count
- Generate individual JSON reports per document

Example:
  textaudit batch documents.txt
  textaudit batch documents.txt --concurrency 4 --output-dir ./reports
  textaudit batch documents.txt --backend heuristic --timeout 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./textaudit-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")

	batchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 50<<20, "max document bytes to read")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable per-page result cache")
	batchCmd.Flags().StringVar(&backendName, "backend", "", "analysis backend (gemini, openai, heuristic)")
	batchCmd.Flags().StringVar(&modelName, "model", "", "model name for remote backends")
}

func runBatch(cmd *cobra.Command, args []string) error {
	listFile := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildScanConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch input:  %s\n", listFile)
	fmt.Fprintf(os.Stderr, "Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "Backend:      %s\n", displayBackend(cfg.LLM.Backend))
	fmt.Fprintf(os.Stderr, "Output dir:   %s\n\n", outputDir)

	processor := worker.NewBatchProcessor(analyzer, concurrency)
	results, err := processor.ProcessFile(ctx, listFile)
	if err != nil {
		return err
	}

	renderer := report.NewRenderer(cfg.Output.IncludeFooter)
	scorer := score.NewScorer()

	succeeded := 0
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		sc := scorer.Calculate(result.Report)
		result.Report.Score = &sc

		outPath := filepath.Join(outputDir, reportFileName(result.Path))
		if err := renderer.WriteJSON(result.Report, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}

		succeeded++
		fmt.Fprintf(os.Stderr, "✓ %s: %d findings, index %d/100\n",
			result.Path, len(result.Report.Findings), sc.Index)
	}

	fmt.Fprintf(os.Stderr, "\nCompleted: %d/%d documents\n", succeeded, len(results))

	if succeeded == 0 && len(results) > 0 {
		return fmt.Errorf("all %d documents failed", len(results))
	}
	return nil
}

// reportFileName derives the JSON report name from the document path.
func reportFileName(docPath string) string {
	base := filepath.Base(docPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".json"
}
