package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/cmd/docai-hub/ui"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/app"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/config"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docai-hub",
	Short: "Document extraction and translation relay",
	Long: `docai-hub relays invoices to a document extraction service, applies
corrections to extraction jobs, and translates documents with optional
conversion of the result to PDF.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Init(noColor)

		path := cfgFile
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		logCfg := observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: cfg.Observability.ServiceName,
		}
		if cmd != serveCmd {
			// One-shot commands keep stdout for results and show only problems.
			logCfg.Level = "warn"
			logCfg.Format = "console"
			logCfg.Output = os.Stderr
		}
		if verbose {
			logCfg.Level = "debug"
		}
		logger = observability.NewLogger(logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize services: %w", err)
	}
	return a, nil
}

// stageUpload copies a local file into the uploads dir. The pipeline deletes
// uploads when it is done, so the user's file is never handed over directly.
func stageUpload(path, uploadsDir string) (domain.Upload, error) {
	src, err := os.Open(path) // #nosec G304 -- user supplied input file
	if err != nil {
		return domain.Upload{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return domain.Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Upload{}, fmt.Errorf("%s is a directory", path)
	}

	if err := os.MkdirAll(uploadsDir, 0o750); err != nil {
		return domain.Upload{}, fmt.Errorf("create uploads dir: %w", err)
	}
	staged := filepath.Join(uploadsDir, uuid.NewString())
	dst, err := os.OpenFile(staged, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) // #nosec G304 -- generated name
	if err != nil {
		return domain.Upload{}, fmt.Errorf("create staged file: %w", err)
	}

	if _, err := ui.CopyWithProgress(dst, src, info.Size(), "Staging "+filepath.Base(path)); err != nil {
		dst.Close()
		os.Remove(staged)
		return domain.Upload{}, fmt.Errorf("copy %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(staged)
		return domain.Upload{}, fmt.Errorf("close staged file: %w", err)
	}

	return domain.Upload{Path: staged, FileName: filepath.Base(path)}, nil
}

// writeOutput writes data to path, or to w when path is "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// describe renders err with the upstream detail when there is one.
func describe(err error) string {
	detail := domain.ErrorDetail(err)
	if detail == err.Error() {
		return detail
	}
	return fmt.Sprintf("%v\n  detail: %s", err, detail)
}
