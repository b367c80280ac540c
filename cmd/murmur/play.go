package main

import (
	"os"

	"github.com/aretw0/murmur/internal/cli"
	"github.com/aretw0/murmur/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a dialogue in the terminal",
	Long: `Plays the dialogue graph interactively. Press Enter to advance, type a number to pick a
choice, "b" to go back, "s" to skip the reveal and "q" to quit.

Output that is not a terminal switches to headless mode automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, args)
		if err != nil {
			return err
		}

		headless, _ := cmd.Flags().GetBool("headless")
		opts := cli.PlayOptions{
			Document:    doc,
			BranchSlots: cfg.BranchSlots,
			Headless:    headless || !cli.IsTerminal(os.Stdout),
			Logger:      logger(true),
		}
		if opts.Middleware, err = cfg.StoreMiddleware(); err != nil {
			return err
		}
		opts.StartID, _ = cmd.Flags().GetString("start")
		opts.Language, _ = cmd.Flags().GetString("lang")
		opts.Markdown, _ = cmd.Flags().GetBool("markdown")
		opts.Color, _ = cmd.Flags().GetString("color")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.SessionDir, _ = cmd.Flags().GetString("session-dir")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		if cmd.Flags().Changed("speed") {
			speed, _ := cmd.Flags().GetFloat64("speed")
			opts.Speed = &speed
		}
		if cmd.Flags().Changed("slots") {
			opts.BranchSlots, _ = cmd.Flags().GetInt("slots")
		}

		if !opts.Headless && !opts.Quiet {
			tui.PrintBanner(os.Stdout)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Play(ctx, opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("start", "", "Node to start at (default: first node of the document)")
	playCmd.Flags().String("lang", "", "Language to play in (default: document language)")
	playCmd.Flags().Float64("speed", 1, "Text speed in [0,1]")
	playCmd.Flags().Int("slots", 0, "Number of branch slots (default: MURMUR_BRANCH_SLOTS)")
	playCmd.Flags().Bool("headless", false, "Print each line at once, without animation")
	playCmd.Flags().Bool("markdown", false, "Render dialogue text as markdown in headless mode")
	playCmd.Flags().String("color", "", "Color of the revealed text (hex or ANSI index)")
	playCmd.Flags().StringP("session", "s", "", "Session ID; resumes where the session stopped")
	playCmd.Flags().String("session-dir", "", "Directory for session files (default: .murmur/sessions)")
	playCmd.Flags().Bool("fresh", false, "Discard the saved session before playing")
	playCmd.Flags().BoolP("quiet", "q", false, "Hide system messages")

	// Plain "murmur" plays the default document.
	rootCmd.RunE = playCmd.RunE
}
