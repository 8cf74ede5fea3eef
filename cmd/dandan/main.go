package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imi6/dandan/internal/di"
	"github.com/imi6/dandan/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}

	rootCmd := &cobra.Command{
		Use:   "dandan",
		Short: "Danmaku relay backend for the web video player",
		Long: "dandan serves local video files with range support, fingerprints " +
			"them against the DanDanPlay database and reformats comment overlays " +
			"for the player in use.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := di.InitApp(flags)
			return err
		},
	}

	rootCmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.Flags().BoolVarP(&flags.DebugMode, "debug", "d", false, "log to console and expose error detail")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
