package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/interview-rehearsal/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the question cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of cached question sets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(kv store.KV, cfg store.Config) error {
			n, err := kv.Len(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "driver: %s\npath: %s\nentries: %d\n", cfg.Driver, cfg.Path, n)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached question set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(kv store.KV, _ store.Config) error {
			n, err := kv.Len(cmd.Context())
			if err != nil {
				return err
			}
			if err := kv.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func withStore(cmd *cobra.Command, fn func(store.KV, store.Config) error) error {
	log, config, err := newLogger()
	if err != nil {
		return err
	}

	kv, err := store.Open(config.Cache, log)
	if err != nil {
		return fmt.Errorf("opening cache store: %w", err)
	}
	defer kv.Close()

	return fn(kv, config.Cache)
}
