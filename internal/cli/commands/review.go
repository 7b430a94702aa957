package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <path>",
		Short: "Show the stored corrections of a sheet",
		Example: `  # Show pending corrections
  sheetproof list reports/q3.xlsx --sheet Summary --status pending

  # Show every correction as JSON
  sheetproof list reports/q3.xlsx --sheet Summary -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := sheetFlag(cmd)
			if err != nil {
				return err
			}
			var status core.CorrectionStatus
			if s, _ := cmd.Flags().GetString("status"); s != "" {
				if status, err = core.ParseCorrectionStatus(s); err != nil {
					return err
				}
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			corrections, err := cmdCtx.Engine.Corrections(cmd.Context(), args[0], sheet, status)
			if err != nil {
				return err
			}
			return renderCorrections(cmdCtx.Out, cmdCtx.Cfg.OutputFormat, corrections)
		},
	}
	cmd.Flags().StringP("sheet", "s", "", "Sheet name")
	cmd.Flags().String("status", "", "Only show corrections with this status (pending|accepted|rejected)")
	_ = cmd.RegisterFlagCompletionFunc("status", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"pending", "accepted", "rejected"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// NewAcceptCommand creates the accept command.
func NewAcceptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <path> [cell...]",
		Short: "Write corrections into the workbook",
		Long: `Write the stored corrections of the given cells into the workbook and
mark them accepted. Formatting of the words a correction leaves unchanged is
kept.`,
		Example: `  # Accept two corrections
  sheetproof accept reports/q3.xlsx --sheet Summary A1 C4

  # Accept every pending correction of a sheet
  sheetproof accept reports/q3.xlsx --sheet Summary --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := sheetFlag(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			cells := args[1:]
			if len(cells) == 0 && !all {
				return fmt.Errorf("no cells given (use --all to accept every pending correction)")
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if all {
				pending, err := cmdCtx.Engine.Corrections(cmd.Context(), args[0], sheet, core.CorrectionPending)
				if err != nil {
					return err
				}
				for _, c := range pending {
					cells = append(cells, c.Cell)
				}
				if len(cells) == 0 {
					_, _ = fmt.Fprintln(cmdCtx.Out, "No pending corrections")
					return nil
				}
			}

			n, err := cmdCtx.Engine.Accept(cmd.Context(), args[0], sheet, cells)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmdCtx.Out, "Accepted %d corrections\n", n)
			return nil
		},
	}
	cmd.Flags().StringP("sheet", "s", "", "Sheet name")
	cmd.Flags().Bool("all", false, "Accept every pending correction of the sheet")
	return cmd
}

// NewRejectCommand creates the reject command.
func NewRejectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <path> <cell>...",
		Short: "Mark corrections as rejected",
		Long:  `Mark the stored corrections of the given cells as rejected. The workbook is not modified.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := sheetFlag(cmd)
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.Reject(cmd.Context(), args[0], sheet, args[1:]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmdCtx.Out, "Rejected %d corrections\n", len(args)-1)
			return nil
		},
	}
	cmd.Flags().StringP("sheet", "s", "", "Sheet name")
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <path> <cell>",
		Short: "Rewrite a cell, keeping the formatting of unchanged words",
		Example: `  sheetproof edit reports/q3.xlsx B2 --sheet Summary --old "Revenue grew" --new "Revenue rose"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := sheetFlag(cmd)
			if err != nil {
				return err
			}
			oldValue, _ := cmd.Flags().GetString("old")
			newValue, _ := cmd.Flags().GetString("new")

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			changed, err := cmdCtx.Engine.ChangeCell(cmd.Context(), args[0], sheet, args[1], oldValue, newValue)
			if err != nil {
				return err
			}
			if !changed {
				_, _ = fmt.Fprintln(cmdCtx.Out, "Nothing to change")
				return nil
			}
			_, _ = fmt.Fprintf(cmdCtx.Out, "Updated %s!%s\n", sheet, args[1])
			return nil
		},
	}
	cmd.Flags().StringP("sheet", "s", "", "Sheet name")
	cmd.Flags().String("old", "", "Current value of the cell")
	cmd.Flags().String("new", "", "New value of the cell")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}
