package main

import (
	"fmt"

	"github.com/aretw0/murmur/internal/presentation/graph"
	"github.com/aretw0/murmur/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the dialogue graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the document. With --session the nodes the
session visited and the one it stopped at are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, args)
		if err != nil {
			return err
		}

		var opts graph.Options
		if preview, _ := cmd.Flags().GetBool("preview"); preview {
			opts.Language = doc.Language
			if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
				opts.Language = lang
			}
		}
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			dir, _ := cmd.Flags().GetString("session-dir")
			snapshot, err := file.New(dir).Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			opts.Overlay = graph.OverlayFromSnapshot(snapshot)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc.Graph.ListNodes(), opts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("preview", false, "Show a preview of each node's first line")
	graphCmd.Flags().String("lang", "", "Language of the previews (default: document language)")
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of a saved play session")
	graphCmd.Flags().String("session-dir", "", "Directory for session files (default: .murmur/sessions)")
}
