package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sheetproof/internal/engine"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Proofread a registered workbook",
		Long: `Send the text cells of a sheet to the configured language model in
batches and store the suggested corrections for review.

Without --sheet every sheet of the workbook is checked. Checking a sheet
replaces its earlier corrections.`,
		Example: `  # Check one sheet
  sheetproof check reports/q3.xlsx --sheet Summary

  # Check every sheet with a local model
  sheetproof check reports/q3.xlsx --provider ollama --model llama3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sheet, _ := cmd.Flags().GetString("sheet")
			var results []*engine.CheckResult
			if sheet != "" {
				res, err := cmdCtx.Engine.CheckSheet(cmd.Context(), args[0], sheet)
				if err != nil {
					return err
				}
				results = []*engine.CheckResult{res}
			} else {
				results, err = cmdCtx.Engine.CheckWorkbook(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}
			return renderCheck(cmdCtx.Out, cmdCtx.Cfg.OutputFormat, results)
		},
	}
	cmd.Flags().StringP("sheet", "s", "", "Sheet to check (default: all sheets)")
	return cmd
}
