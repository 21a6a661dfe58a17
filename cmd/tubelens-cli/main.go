// Command tubelens-cli is the synchronous command-line front end to the
// assistant: it validates config files and runs one-shot analyses without
// the HTTP server, sharing the same cache and session code paths.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	tubelens "github.com/tubelens/tubelens"
	"github.com/tubelens/tubelens/internal/analysislog"
	"github.com/tubelens/tubelens/internal/cache"
	"github.com/tubelens/tubelens/internal/session"
	"github.com/tubelens/tubelens/internal/version"
	"github.com/tubelens/tubelens/providers"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "tubelens-cli",
		Short:   "TubeLens — YouTube analytics assistant",
		Version: version.String(),
	}

	root.AddCommand(
		newValidateCmd(),
		newAnalyzeCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tubelens-cli %s\n", version.String())
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tubelens.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if err := tubelens.ValidateConfig(*cfg); err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			fmt.Println("✓ Config is valid")
			fmt.Printf("  Server:   %s\n", cfg.Server.Addr)
			fmt.Printf("  Cache:    memory=%d ttl=%ds redis=%q file=%q\n",
				cfg.Cache.MaxMemoryEntries, cfg.Cache.DefaultTTLSeconds,
				cfg.Cache.RedisAddr, cfg.Cache.FileDir)
			fmt.Printf("  Sessions: max_turns=%d idle=%ds\n",
				cfg.Sessions.MaxTurns, cfg.Sessions.IdleTimeoutSeconds)
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath    string
		op            string
		csvPath       string
		competitorCSV string
		question      string
		model         string
		sessionID     string
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a one-shot analysis against a statistics CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}

			analyzer, cleanup, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := analyzer.Analyze(context.Background(), tubelens.AnalyzeRequest{
				Op:                tubelens.Op(op),
				SessionID:         sessionID,
				Question:          question,
				CSVPath:           csvPath,
				CompetitorCSVPath: competitorCSV,
				Model:             model,
				NoCache:           noCache,
			})
			if err != nil {
				return err
			}

			if !res.CSVReport.Valid {
				fmt.Fprintf(os.Stderr, "warning: %d csv row(s) skipped\n", res.CSVReport.Skipped)
			}
			if res.CacheHit {
				fmt.Fprintln(os.Stderr, "(served from cache)")
			}
			fmt.Println(res.Answer)
			fmt.Fprintf(os.Stderr, "session: %s\n", res.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (JSON/YAML)")
	cmd.Flags().StringVar(&op, "op", string(tubelens.OpSEO), "operation: seo, keywords, or gap")
	cmd.Flags().StringVar(&csvPath, "csv", "", "channel statistics CSV (required)")
	cmd.Flags().StringVar(&competitorCSV, "competitor-csv", "", "competitor statistics CSV (gap only)")
	cmd.Flags().StringVar(&question, "question", "", "question for the assistant (required)")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to continue a conversation")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the analysis cache")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("question")

	return cmd
}

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache maintenance",
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear every cache tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}
			tiered, err := newCache(cfg)
			if err != nil {
				return err
			}
			tiered.Clear(context.Background())
			fmt.Println("cache cleared")
			return nil
		},
	}
	clear.Flags().StringVar(&configPath, "config", "", "config file (JSON/YAML)")

	cmd.AddCommand(clear)
	return cmd
}

func loadConfigOrDefault(path string) (tubelens.Config, error) {
	if path == "" {
		return tubelens.DefaultConfig(), nil
	}
	cfg, err := tubelens.LoadConfig(path)
	if err != nil {
		return tubelens.Config{}, err
	}
	if err := tubelens.ValidateConfig(*cfg); err != nil {
		return tubelens.Config{}, err
	}
	return *cfg, nil
}

func newCache(cfg tubelens.Config) (*cache.Tiered, error) {
	return cache.New(cache.Config{
		RedisAddr:        cfg.Cache.RedisAddr,
		FileDir:          cfg.Cache.FileDir,
		DefaultTTL:       cfg.Cache.DefaultTTL(),
		MaxMemoryEntries: cfg.Cache.MaxMemoryEntries,
	})
}

// buildAnalyzer wires a fully local Analyzer: providers from the
// environment, cache and sessions in-process, analysis log per config.
func buildAnalyzer(cfg tubelens.Config) (*tubelens.Analyzer, func(), error) {
	registry := providers.NewRegistry()
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		p, err := providers.NewGemini(key, "")
		if err != nil {
			return nil, nil, err
		}
		registry.Register(p)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		p, err := providers.NewOpenAI(key, "")
		if err != nil {
			return nil, nil, err
		}
		registry.Register(p)
	}
	if registry.Len() == 0 {
		return nil, nil, fmt.Errorf("no providers configured: set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	tiered, err := newCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	sessions := session.NewStore(cfg.Sessions.MaxTurns, cfg.Sessions.IdleTimeout())

	cleanup := func() {}
	var logWriter analysislog.Writer = analysislog.NoopWriter{}
	switch cfg.Analysis.LogDriver {
	case "", "sqlite":
		w, err := analysislog.NewSQLiteWriter(cfg.Analysis.LogDSN)
		if err != nil {
			return nil, nil, err
		}
		logWriter = w
		cleanup = func() { _ = w.Close() }
	case "postgres":
		w, err := analysislog.NewPostgresWriter(cfg.Analysis.LogDSN)
		if err != nil {
			return nil, nil, err
		}
		logWriter = w
		cleanup = func() { _ = w.Close() }
	}

	return tubelens.NewAnalyzer(registry, tiered, sessions, logWriter, cfg.Analysis.DefaultModel), cleanup, nil
}
