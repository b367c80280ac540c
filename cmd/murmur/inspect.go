package main

import (
	"fmt"

	"github.com/aretw0/murmur/internal/cli"
	"github.com/aretw0/murmur/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <node>...",
	Short: "Show the content of nodes",
	Long:  `Prints each node's links and content items, rendered as markdown.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, nil)
		if err != nil {
			return err
		}
		lang := doc.Language
		if l, _ := cmd.Flags().GetString("lang"); l != "" {
			lang = l
		}

		var render func(string) (string, error)
		if raw, _ := cmd.Flags().GetBool("raw"); !raw {
			style, _ := cmd.Flags().GetString("style")
			width, _ := cmd.Flags().GetInt("width")
			if render, err = tui.NewRenderer(style, width); err != nil {
				return err
			}
		}

		for _, id := range args {
			node, ok := doc.Graph.FindNode(id)
			if !ok {
				return fmt.Errorf("node %q not found", id)
			}
			if err := cli.Inspect(cmd.OutOrStdout(), node, lang, render); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("lang", "", "Language to show (default: document language)")
	inspectCmd.Flags().Bool("raw", false, "Print markdown without rendering")
	inspectCmd.Flags().String("style", "", "glamour style: dark, light, notty... (default: auto)")
	inspectCmd.Flags().Int("width", 80, "Word wrap width")
}
