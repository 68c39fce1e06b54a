package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bengal-go/bengal/pkg/cachemgr"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the on-disk build cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached state, forcing the next build to be a full rebuild",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	mgr := cachemgr.New(".")
	if err := mgr.Initialize(true); err != nil {
		return err
	}
	fmt.Printf("fingerprints: %d\n", mgr.Build().FingerprintCount())
	fmt.Printf("config hash:  %s\n", mgr.Build().ConfigHash())
	fmt.Printf("asset hashes: %d\n", len(mgr.LoadAssetHashes()))
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	dir := filepath.Join(".", ".bengal")
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Printf("removed %s\n", dir)
	return nil
}
