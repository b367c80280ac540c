package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/murmur/internal/cli"
	"github.com/aretw0/murmur/internal/config"
	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/pkg/reveal"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "murmur",
	Short: "Murmur plays branching dialogue with a typewriter reveal",
	Long: `Murmur walks a graph of dialogue nodes, revealing each line character by character.
Graphs are YAML (or JSON) documents; play them in the terminal, serve them over HTTP,
or check and draw them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.LogLevel = "debug"
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("file", "f", "dialogue.yaml", "Graph document to load")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadDocument reads the --file document. Reveal settings of the document take
// precedence over the environment.
func loadDocument(cmd *cobra.Command, args []string) (*cli.Document, error) {
	path, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") && len(args) > 0 {
		path = args[0]
	}
	doc, err := cli.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	defaults := []reveal.Option{
		reveal.WithDefaultDelay(cfg.CharDelay),
		reveal.WithTextSpeed(cfg.TextSpeed),
	}
	doc.Reveal = append(defaults, doc.Reveal...)
	if doc.Language == "" {
		doc.Language = cfg.Language
	}
	return doc, nil
}

// logger writes to stderr so it never interleaves with the dialogue on stdout.
// Outside debug mode play stays silent.
func logger(quietUnlessDebug bool) *slog.Logger {
	if quietUnlessDebug && cfg.LogLevel != "debug" {
		return logging.NewNop()
	}
	return cfg.Logger()
}
