package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Krande/paradoc-go/internal/api"
	"github.com/Krande/paradoc-go/internal/compile"
	"github.com/Krande/paradoc-go/internal/config"
	"github.com/Krande/paradoc-go/internal/crossref"
	exporthtml "github.com/Krande/paradoc-go/internal/export/html"
	"github.com/Krande/paradoc-go/internal/fieldeval"
	"github.com/Krande/paradoc-go/internal/ingest"
	"github.com/Krande/paradoc-go/internal/inspect"
	"github.com/Krande/paradoc-go/internal/watch"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	root := &cobra.Command{
		Use:           "paradoc",
		Short:         "Compile structured reports with live cross-references",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCompileCmd(log),
		newValidateCmd(log),
		newPreviewCmd(log),
		newInspectCmd(log),
		newWatchCmd(log),
		newServeCmd(log),
	)

	if err := root.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadProfile(path string) (config.Profile, error) {
	if path == "" {
		path = os.Getenv("PARADOC_PROFILE")
	}
	return config.LoadProfile(path)
}

func newCompiler(profilePath, evaluatorURL string, log *slog.Logger) (*compile.Compiler, error) {
	profile, err := loadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	var evaluator *fieldeval.Client
	if evaluatorURL != "" {
		evaluator = fieldeval.NewClient(evaluatorURL, 60*time.Second)
	}
	return compile.NewCompiler(profile, evaluator, log), nil
}

func newCompileCmd(log *slog.Logger) *cobra.Command {
	var output, profilePath, evaluatorURL string
	cmd := &cobra.Command{
		Use:   "compile <input>",
		Short: "Compile a document and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
			}
			c, err := newCompiler(profilePath, evaluatorURL, log)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			doc, err := ingest.Parse(input, data)
			if err != nil {
				return err
			}
			out, report, err := c.Compile(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			log.Info("compiled", "input", input, "output", output,
				"targets", report.Stats.TotalTargets,
				"citations", report.Stats.TotalCitations,
				"dangling", report.Stats.DanglingCitations)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with .docx)")
	cmd.Flags().StringVar(&profilePath, "profile", "", "document profile YAML")
	cmd.Flags().StringVar(&evaluatorURL, "evaluator", "", "field evaluation service URL")
	return cmd
}

func newValidateCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <input>",
		Short: "Report cross-reference statistics without compiling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := ingest.Parse(args[0], data)
			if err != nil {
				return err
			}
			model := crossref.Extract(doc)
			stats := model.Validate()
			for _, d := range model.Dangling {
				log.Warn("dangling citation", "id", d.FullID, "context", d.Context)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(stats); err != nil {
				return err
			}
			if stats.DanglingCitations > 0 {
				return fmt.Errorf("%d dangling citations", stats.DanglingCitations)
			}
			return nil
		},
	}
	return cmd
}

func newPreviewCmd(log *slog.Logger) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "preview <input>",
		Short: "Render an HTML preview with resolved numbering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			doc, err := ingest.Parse(input, data)
			if err != nil {
				return err
			}
			e := &exporthtml.Exporter{Title: strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))}
			out, err := e.Export(doc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			log.Info("preview written", "output", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with .html)")
	return cmd
}

func newInspectCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.docx|file.pdf>",
		Short: "Audit a produced document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".docx":
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				report, err := inspect.Docx(data)
				if err != nil {
					return err
				}
				return enc.Encode(report)
			case ".pdf":
				report, err := inspect.PDF(args[0])
				if err != nil {
					return err
				}
				if report.BrokenRefs > 0 {
					log.Warn("broken references found", "count", report.BrokenRefs)
				}
				return enc.Encode(report)
			default:
				return fmt.Errorf("inspect supports .docx and .pdf, got %s", filepath.Ext(args[0]))
			}
		},
	}
	return cmd
}

func newWatchCmd(log *slog.Logger) *cobra.Command {
	var output, profilePath, evaluatorURL string
	cmd := &cobra.Command{
		Use:   "watch <input>",
		Short: "Recompile on every change to the input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
			}
			c, err := newCompiler(profilePath, evaluatorURL, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &watch.Watcher{
				Path: input,
				Log:  log,
				OnChange: func(ctx context.Context, path string) error {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					doc, err := ingest.Parse(path, data)
					if err != nil {
						return err
					}
					out, _, err := c.Compile(ctx, doc)
					if err != nil {
						return err
					}
					return os.WriteFile(output, out, 0o644)
				},
			}
			err = w.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with .docx)")
	cmd.Flags().StringVar(&profilePath, "profile", "", "document profile YAML")
	cmd.Flags().StringVar(&evaluatorURL, "evaluator", "", "field evaluation service URL")
	return cmd
}

func newServeCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compilation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			profile, err := config.LoadProfile(cfg.ProfilePath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var evaluator *fieldeval.Client
			if cfg.EvaluatorURL != "" {
				evaluator = fieldeval.NewClient(cfg.EvaluatorURL, cfg.EvaluatorTimeout)
			}

			orch := compile.NewOrchestrator(cfg, profile, evaluator, log)
			orch.Start(ctx)

			srv := api.NewServer(orch, log, cfg)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				orch.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)

				if evaluator != nil {
					evaluator.Close()
				}
			}()

			log.Info("starting paradoc", "port", cfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	return cmd
}
