package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/cmd/docai-hub/ui"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/pipeline"
)

var (
	translateSource string
	translateTarget string
	translateFormat string
	translateOutput string
)

var translateCmd = &cobra.Command{
	Use:   "translate <file>",
	Short: "Translate a document",
	Long: `Translate a document. With --format pdf an Office result is converted to
PDF through the configured conversion API.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringVarP(&translateSource, "source", "s", "", "source language (default from config)")
	translateCmd.Flags().StringVarP(&translateTarget, "target", "t", "", "target language (default from config)")
	translateCmd.Flags().StringVarP(&translateFormat, "format", "f", "", `output format; "pdf" converts Office results`)
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "", "output path (default: <name>.<target>.<ext> next to the input)")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if translateOutput != "" && samePath(translateOutput, args[0]) {
		return fmt.Errorf("output %s would overwrite the input file", translateOutput)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	upload, err := stageUpload(args[0], cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	spin := ui.NewSpinner("Translating " + upload.FileName)
	spin.Start()
	doc, err := a.Service.TranslateDocument(ctx, pipeline.TranslateRequest{
		Upload:       upload,
		SourceLang:   translateSource,
		TargetLang:   translateTarget,
		OutputFormat: translateFormat,
	})
	spin.Stop()
	if err != nil {
		ui.Error("translation failed: %s", describe(err))
		return err
	}

	out := translateOutput
	if out == "" {
		target := translateTarget
		if target == "" {
			target = cfg.Translation.TargetLang
		}
		out = translatedPath(args[0], doc.FileName, target)
	}
	if samePath(out, args[0]) {
		return fmt.Errorf("output %s would overwrite the input file", out)
	}
	if err := writeOutput(cmd.OutOrStdout(), out, doc.Data); err != nil {
		return fmt.Errorf("write translation: %w", err)
	}

	if doc.Kind == "json" {
		ui.Warning("translation service answered with JSON instead of a document")
	} else {
		ui.Success("Translation finished")
	}
	ui.KeyValue("kind", doc.Kind)
	ui.KeyValue("bytes", strconv.Itoa(len(doc.Data)))
	if doc.Pages > 0 {
		ui.KeyValue("pages", strconv.Itoa(doc.Pages))
	}
	ui.KeyValue("output", out)
	return nil
}

// translatedPath places name next to input with the target language before the extension,
// e.g. report.docx translated to es-ES becomes report.es-ES.docx.
func translatedPath(input, name, target string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if target != "" {
		base += "." + target
	}
	return filepath.Join(filepath.Dir(input), base+ext)
}

// samePath reports whether a and b name the same file. "-" is stdout and never matches.
func samePath(a, b string) bool {
	if a == "-" || b == "-" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
