// Package main provides the elsstcheck binary entry point.
// Elsstcheck checks whether a CESSDA data catalogue record tags its subject
// keywords with the ELSST controlled vocabulary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/checker"
	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/config"
	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/elsst"
	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/oaipmh"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "elsstcheck"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	exitCode := 0
	if err := rootCmd(&exitCode).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func rootCmd(exitCode *int) *cobra.Command {
	var (
		configPath string
		logLevel   string
		lang       string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "elsstcheck <catalogue-detail-url>",
		Short: "Check whether a catalogue record uses ELSST keywords",
		Long: `Elsstcheck determines whether a CESSDA data catalogue record tags its
subject keywords with the ELSST controlled vocabulary.

Given a catalogue detail-page URL it fetches the DDI record from the
OAI-PMH repository, inspects the keyword vocabulary attributes and, when
those are inconclusive, compares the keyword text against the ELSST
label service.

The result is exactly one of "pass", "fail" or "indeterminate", printed
to stdout. The process exits 0 for pass and 1 for anything else.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(args[0], configPath, logLevel, lang, jsonOut)
			if err != nil {
				return err
			}
			*exitCode = code
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&lang, "lang", "", "Language code to use when the URL carries none")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the evaluation response as JSON, including the decision trace")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(url, configPath, logLevel, lang string, jsonOut bool) (int, error) {
	// Configure logging. Diagnostics go to stderr; stdout carries only the
	// classification result.
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err == nil {
			err = cfg.Validate()
		}
	} else {
		cfg, err = config.NewLoader(logger).Load()
	}
	if err != nil {
		return 1, fmt.Errorf("load config: %w", err)
	}

	if lang == "" {
		lang = cfg.Language
	}

	fetcher := oaipmh.NewClient(
		oaipmh.WithBaseURL(cfg.Repository.Endpoint),
		oaipmh.WithTimeout(cfg.Repository.Timeout),
		oaipmh.WithUserAgent(cfg.Repository.UserAgent),
		oaipmh.WithLogger(logger),
	)
	matcher := elsst.NewClient(
		elsst.WithBaseURL(cfg.Labels.Endpoint),
		elsst.WithTimeout(cfg.Labels.Timeout),
		elsst.WithUserAgent(cfg.Repository.UserAgent),
		elsst.WithCacheScope(elsst.CacheScope(cfg.Labels.CacheScope)),
		elsst.WithLogger(logger),
	)
	chk := checker.New(fetcher, matcher,
		checker.WithLogger(logger),
		checker.WithDefaultLanguage(lang),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Checking catalogue record", "url", url)
	outcome := chk.ContainsElsstKeywords(ctx, url)
	logger.Info("Classification complete",
		"run_id", outcome.RunID,
		"result", outcome.Verdict)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome.Response()); err != nil {
			return 1, fmt.Errorf("encode response: %w", err)
		}
	} else {
		fmt.Println(outcome.Verdict)
	}

	return outcome.Verdict.ExitCode(), nil
}
