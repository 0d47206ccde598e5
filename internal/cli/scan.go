package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmribera/textaudit/internal/model"
	"github.com/jmribera/textaudit/internal/pipeline"
	"github.com/jmribera/textaudit/internal/report"
	"github.com/jmribera/textaudit/internal/score"
)

var (
	outJSON     string
	outMD       string
	outCSV      string
	outXLSX     string
	startPage   int
	endPage     int
	scanTimeout time.Duration
	maxBytes    int64
	noCache     bool
	noFooter    bool
	backendName string
	backendAPI  string
	modelName   string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <file.pdf>",
	Short: "Analyze a PDF page by page and generate a findings report",
	Long: `Scan analyzes a PDF document page by page to:
- Detect gender, religious, and political bias
- Detect orthography, grammar, and semantic issues
- Report each finding with fragment, recommendation, and priority
- Compute a document quality index

Example:
  textaudit scan informe.pdf
  textaudit scan informe.pdf --start 10 --end 25 --md report.md
  textaudit scan informe.pdf --backend gemini --model gemini-2.0-flash
  textaudit scan informe.pdf --backend heuristic --csv findings.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().StringVar(&outCSV, "csv", "", "output CSV path (optional)")
	scanCmd.Flags().StringVar(&outXLSX, "xlsx", "", "output XLSX path (optional)")

	// Range flags
	scanCmd.Flags().IntVar(&startPage, "start", 1, "first page to analyze (1-indexed)")
	scanCmd.Flags().IntVar(&endPage, "end", 0, "last page to analyze (0 = last page of the document)")

	// Analysis flags
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 30*time.Minute, "overall analysis timeout")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 50<<20, "max document bytes to read")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable per-page result cache")
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Backend flags
	scanCmd.Flags().StringVar(&backendName, "backend", "", "analysis backend (gemini, openai, heuristic; default heuristic)")
	scanCmd.Flags().StringVar(&modelName, "model", "", "model name for remote backends")
	scanCmd.Flags().StringVar(&backendAPI, "base-url", "", "override backend endpoint URL")
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	cfg, err := buildScanConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Backend: %s\n", displayBackend(cfg.LLM.Backend))
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	doc, err := pipeline.LoadDocument(path, cfg.Document.MaxBytes)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	end := endPage
	if end <= 0 {
		end = int(^uint(0) >> 1)
	}

	var progress pipeline.ProgressFunc
	if verbose {
		progress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r  Page %d/%d analyzed", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	rep, err := analyzer.Analyze(ctx, doc, startPage, end, progress)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	rep.DocumentName = filepath.Base(path)
	sc := score.NewScorer().Calculate(rep)
	rep.Score = &sc

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Analyzed %d pages\n", rep.Range.Len())
		fmt.Fprintf(os.Stderr, "✓ Found %d issues\n", len(rep.Findings))
		fmt.Fprintf(os.Stderr, "✓ Quality index: %d/100\n", rep.Score.Index)
		if failed := rep.FailedPages(); len(failed) > 0 {
			fmt.Fprintf(os.Stderr, "⚠ Failed pages: %v\n", failed)
		}
		fmt.Fprintln(os.Stderr)
	}

	return writeReports(rep)
}

// buildScanConfig overlays the scan flags on the resolved configuration.
func buildScanConfig() (*model.Config, error) {
	cfg := loadConfig()

	cfg.Document.MaxBytes = maxBytes
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if backendName != "" {
		cfg.LLM.Backend = backendName
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	if backendAPI != "" {
		cfg.LLM.BaseURL = backendAPI
	}

	// Remote backends take their API key from the environment.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Backend {
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
			}
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		}
	}

	return cfg, nil
}

func displayBackend(name string) string {
	if name == "" {
		return "heuristic"
	}
	return name
}

// writeReports renders the requested output formats.
func writeReports(rep *model.Report) error {
	renderer := report.NewRenderer(!noFooter)

	if outJSON != "" {
		if err := renderer.WriteJSON(rep, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.WriteMarkdown(rep, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
		}
	}
	if outCSV != "" {
		if err := renderer.WriteCSV(rep, outCSV); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ CSV report: %s\n", outCSV)
		}
	}
	if outXLSX != "" {
		if err := renderer.WriteXLSX(rep, outXLSX); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ XLSX report: %s\n", outXLSX)
		}
	}

	return nil
}
