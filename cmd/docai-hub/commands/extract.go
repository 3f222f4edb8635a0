package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/cmd/docai-hub/ui"
)

var extractOutput string

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract invoice fields from a document",
	Long:  "Submit a document as an extraction job, wait for it to finish and print the extracted fields.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "-", "where to write the extraction JSON (- for stdout)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	spin := ui.NewSpinner("Waiting for extraction job")
	spin.Start()
	result, err := a.Service.ExtractInvoice(ctx, upload)
	spin.Stop()
	if err != nil {
		ui.Error("extraction failed: %s", describe(err))
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Payload, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(result.Payload)
	}
	pretty.WriteByte('\n')

	if err := writeOutput(cmd.OutOrStdout(), extractOutput, pretty.Bytes()); err != nil {
		return fmt.Errorf("write extraction: %w", err)
	}

	ui.Success("Extraction finished")
	ui.KeyValue("job", result.JobID)
	ui.KeyValue("status", string(result.Status))
	if extractOutput != "-" {
		ui.KeyValue("output", extractOutput)
	}
	return nil
}
