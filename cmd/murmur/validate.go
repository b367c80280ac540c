package main

import (
	"fmt"

	"github.com/aretw0/murmur/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check the graph for consistency",
	Long: `Checks links, content and reachability from the start node. Errors fail the command;
warnings are printed but do not.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, args)
		if err != nil {
			return err
		}

		opts := validator.Options{
			StartID:     doc.FirstNodeID(),
			BranchSlots: cfg.BranchSlots,
		}
		if start, _ := cmd.Flags().GetString("start"); start != "" {
			opts.StartID = start
		}
		if cmd.Flags().Changed("slots") {
			opts.BranchSlots, _ = cmd.Flags().GetInt("slots")
		}
		opts.Languages, _ = cmd.Flags().GetStringSlice("lang")

		report := validator.ValidateGraph(doc.Graph, opts)
		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			if issue.Severity == validator.SeverityWarning {
				fmt.Fprintln(out, issue)
			}
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("start", "", "Start node (default: first node of the document)")
	validateCmd.Flags().StringSlice("lang", nil, "Languages every content item must be authored in")
	validateCmd.Flags().Int("slots", 0, "Branch slots available (default: MURMUR_BRANCH_SLOTS)")
}
