package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/cmd/docai-hub/ui"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/pipeline"
)

var confirmSkip bool

var confirmCmd = &cobra.Command{
	Use:   "confirm <jobId> [corrections.json]",
	Short: "Apply corrected fields to an extraction job and confirm it",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConfirm,
}

func init() {
	confirmCmd.Flags().BoolVar(&confirmSkip, "no-confirm", false, "only update the fields, do not confirm the job")
	rootCmd.AddCommand(confirmCmd)
}

func runConfirm(cmd *cobra.Command, args []string) error {
	req, err := confirmRequest(args, !confirmSkip)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Service.ConfirmInvoice(ctx, req)
	if err != nil {
		ui.Error("confirmation failed: %s", describe(err))
		return err
	}

	ui.Success("Job %s %s", result.JobID, result.Status)
	if result.Record != nil {
		ui.KeyValue("record", result.Record.ID)
	}
	return nil
}

// confirmRequest builds the request from the job id and an optional corrections file.
func confirmRequest(args []string, confirm bool) (pipeline.ConfirmRequest, error) {
	req := pipeline.ConfirmRequest{JobID: args[0], Confirm: &confirm}
	if len(args) < 2 {
		return req, nil
	}

	data, err := os.ReadFile(args[1]) // #nosec G304 -- user supplied input file
	if err != nil {
		return req, fmt.Errorf("read corrections: %w", err)
	}
	if !json.Valid(data) {
		return req, fmt.Errorf("%s is not valid JSON", args[1])
	}
	req.Extraction = data
	return req, nil
}
