// FilingLens — SEC filing analysis and revenue forecasting
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seenimoa/filinglens/api"
	"github.com/seenimoa/filinglens/internal/analyze"
	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/forecast"
	"github.com/seenimoa/filinglens/internal/logger"
	"github.com/seenimoa/filinglens/internal/report"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/internal/trace"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	err := rootCmd.Execute()
	_ = trace.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "filinglens",
	Short: "FilingLens — SEC filing analysis and revenue forecasting",
	Long: `FilingLens pulls a company's 10-K and 10-Q filings from SEC EDGAR,
computes fundamental metric snapshots and multi-period trends, flags
leverage, margin, and working-capital warning signs, and projects the
next period's revenue.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // best effort; the environment may already carry everything

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}

		logger.Init(cfg.Logging)
		if err := trace.Init("filinglens", version, cfg.Logging.Tracing); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(conceptsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newAnalyzer wires the configured retrieval source into an analyzer.
func newAnalyzer() (*analyze.Analyzer, string, error) {
	reg, err := analyze.BuildRegistry(cfg.Retrieval)
	if err != nil {
		return nil, "", err
	}
	src, err := reg.Default()
	if err != nil {
		return nil, "", err
	}
	a, err := analyze.New(cfg, src)
	if err != nil {
		return nil, "", err
	}
	return a, src.Name(), nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FilingLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER [PEERS...]",
	Short: "Analyze a company's filings, optionally against peers",
	Long: `Fetch the latest 10-K and 10-Q filings for TICKER and any PEERS,
compute metric snapshots, multi-period trends and alerts, and a revenue
forecast, then render the report.

Examples:
  filinglens analyze AAPL
  filinglens analyze AAPL MSFT GOOGL --format html -o report.html
  filinglens analyze AAPL --years 5 --strategy avg-growth
  filinglens analyze AAPL MSFT --csv metrics.csv --series-csv series.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		analyzer, source, err := newAnalyzer()
		if err != nil {
			return err
		}

		years, _ := cmd.Flags().GetInt("years")
		quarters, _ := cmd.Flags().GetInt("quarters")
		strategy, _ := cmd.Flags().GetString("strategy")
		if years != 0 || quarters != 0 || strategy != "" {
			analyzer, err = analyzer.Tune(years, quarters, strategy)
			if err != nil {
				return err
			}
		}

		ticker, peers := args[0], args[1:]
		// Status goes to stderr; stdout carries the report and pipes cleanly.
		if len(peers) > 0 {
			fmt.Fprintf(os.Stderr, "🔍 Analyzing %s (+%d peers) via %s\n", ticker, len(peers), source)
		} else {
			fmt.Fprintf(os.Stderr, "🔍 Analyzing %s via %s\n", ticker, source)
		}

		batch, err := analyzer.Run(cmd.Context(), ticker, peers...)
		if err != nil {
			return err
		}

		out, err := report.Generate(batch, report.Config{Format: format})
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := writeFile(path, []byte(out)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "📄 Report written to %s\n", path)
		} else {
			fmt.Print(out)
		}

		// The CSV exports are independent side outputs; attempt both and
		// report every failure.
		var exportErrs []error
		if path, _ := cmd.Flags().GetString("csv"); path != "" {
			err := writeWith(path, func(w io.Writer) error { return report.WriteSnapshotCSV(w, batch) })
			if err != nil {
				exportErrs = append(exportErrs, fmt.Errorf("snapshot csv: %w", err))
			} else {
				fmt.Fprintf(os.Stderr, "📄 Snapshot CSV written to %s\n", path)
			}
		}
		if path, _ := cmd.Flags().GetString("series-csv"); path != "" {
			rep := batch.Reports[batch.Main]
			err := writeWith(path, func(w io.Writer) error { return report.WriteSeriesCSV(w, rep) })
			if err != nil {
				exportErrs = append(exportErrs, fmt.Errorf("series csv: %w", err))
			} else {
				fmt.Fprintf(os.Stderr, "📄 Series CSV written to %s\n", path)
			}
		}
		return errors.Join(exportErrs...)
	},
}

func init() {
	analyzeCmd.Flags().String("format", "text", "report format (text, html, csv)")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().String("csv", "", "also write the per-ticker metric snapshot CSV to this path")
	analyzeCmd.Flags().String("series-csv", "", "also write the main ticker's period-series CSV to this path")
	analyzeCmd.Flags().Int("years", 0, "annual filings to analyze (0 = configured default)")
	analyzeCmd.Flags().Int("quarters", 0, "quarterly filings to analyze (0 = configured default)")
	analyzeCmd.Flags().String("strategy", "", "forecast strategy override (arima, avg-growth)")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func writeWith(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- Concepts Command ---

var conceptsCmd = &cobra.Command{
	Use:   "concepts",
	Short: "List the canonical concepts and their label match patterns",
	Long: `List every financial concept the resolver knows, with the label
patterns it matches for each — including any patterns merged in from the
configured synonyms overlay file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set := resolve.DefaultSynonyms()
		if cfg.Synonyms.File != "" {
			overlay, err := resolve.LoadSynonymsFile(cfg.Synonyms.File)
			if err != nil {
				return fmt.Errorf("synonyms overlay: %w", err)
			}
			set = set.Merge(overlay)
		}
		patterns := resolve.NewResolver(set).Patterns()

		for _, c := range resolve.AllConcepts() {
			fmt.Println(c)
			for _, p := range patterns[c] {
				fmt.Printf("    %s\n", p)
			}
		}
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg, version)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 FilingLens API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := analyze.BuildRegistry(cfg.Retrieval)
		if err != nil {
			return err
		}
		src, err := reg.Default()
		if err != nil {
			return err
		}

		strategy := cfg.Forecast.Strategy
		if strategy == "" {
			strategy = forecast.Default().Name()
		}

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  FilingLens — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:        %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Source:         %s (registered: %s)\n", src.Name(), strings.Join(reg.Names(), ", "))
		fmt.Printf("    History:        %d years, %d quarters\n", cfg.Analysis.Years, cfg.Analysis.Quarters)
		fmt.Printf("    Forecast:       %s\n", strategy)
		fmt.Printf("    Alert Rules:    %d custom\n", len(cfg.Rules.Expressions))
		fmt.Printf("    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Log Level:      %s\n", cfg.Logging.Level)
		fmt.Println()

		// SEC fair-access policy wants a contact address in the User-Agent,
		// so surface which settings still run on shipped defaults.
		fmt.Println("  Settings:")
		for _, st := range config.CheckSettings(cfg) {
			status := "❌ default"
			if st.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", st.Source, st.Display)
			}
			fmt.Printf("    %-25s %s\n", st.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
