package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmribera/textaudit/internal/pipeline"
	"github.com/jmribera/textaudit/internal/server"
)

var (
	servePort    int
	serveBackend string
	serveModel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	Long: `Serve starts an HTTP server exposing the analysis API:

  GET  /health           service liveness and active backend
  POST /api/v1/validate  multipart PDF upload with optional
                         start_page and end_page fields

Example:
  textaudit serve
  textaudit serve --port 9090 --backend gemini`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "analysis backend (gemini, openai, heuristic)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name for remote backends")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveBackend != "" {
		cfg.LLM.Backend = serveBackend
	}
	if serveModel != "" {
		cfg.LLM.Model = serveModel
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Backend {
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("configure analyzer: %w", err)
	}

	srv := server.New(analyzer, cfg.Server)
	return srv.Run()
}
