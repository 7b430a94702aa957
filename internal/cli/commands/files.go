package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a workbook for proofreading",
		Long: `Register an .xlsx or .xlsm workbook so its sheets can be checked.

Adding a workbook that is already registered replaces its record and
discards its correction history.`,
		Example: `  # Register a workbook
  sheetproof add reports/q3.xlsx

  # Register a workbook together with its online location
  sheetproof add reports/q3.xlsx --url https://example.sharepoint.com/q3.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			url, _ := cmd.Flags().GetString("url")
			rec, err := cmdCtx.Engine.AddFile(cmd.Context(), args[0], url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmdCtx.Out, "Added %s (%d sheets)\n", rec.LocalPath, len(rec.SheetNames))
			return nil
		},
	}
	cmd.Flags().String("url", "", "Online URL of the workbook")
	return cmd
}

// NewFilesCommand creates the files command.
func NewFilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List registered workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			files, err := cmdCtx.Engine.Files(cmd.Context())
			if err != nil {
				return err
			}
			return renderFiles(cmdCtx.Out, cmdCtx.Cfg.OutputFormat, files)
		},
	}
}

// NewSheetsCommand creates the sheets command.
func NewSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <path>",
		Short: "List the sheets of a registered workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sheets, err := cmdCtx.Engine.SheetNames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, s := range sheets {
				_, _ = fmt.Fprintln(cmdCtx.Out, s)
			}
			return nil
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <path>",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a workbook and delete its history",
		Long: `Stop tracking a workbook. Its correction history and runs are deleted;
the workbook itself is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.RemoveFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmdCtx.Out, "Removed %s\n", args[0])
			return nil
		},
	}
}
