// Package cmd provides the CLI commands for bengal.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

var (
	// cfgFile is the path to the config file specified via --config flag.
	cfgFile string

	// outputDir is the output directory specified via --output flag.
	outputDir string

	// verbose enables verbose output.
	verbose bool

	// incremental controls whether the build reuses cache state (C9) or
	// forces a full rebuild.
	incremental bool

	// cpuProfile is the path to write CPU profile data.
	cpuProfile string

	// memProfile is the path to write memory profile data.
	memProfile string

	// cpuProfileFile holds the open CPU profile file for cleanup.
	cpuProfileFile *os.File
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bengal",
	Short: "An incremental-build static site generator",
	Long: `Bengal is a static site generator built around a cache-backed
incremental build engine: most edits rebuild only the pages whose inputs
actually changed, falling back to a full rebuild whenever that can't be
proven safe.

Example usage:
  bengal build                  # Build the site, incrementally if possible
  bengal build --full           # Force a full rebuild
  bengal explain <page>         # Show why a page would or wouldn't rebuild
  bengal cache stats|clear      # Inspect or reset the on-disk build cache

Profiling:
  bengal build --cpuprofile cpu.prof   # Write CPU profile
  bengal build --memprofile mem.prof   # Write memory profile`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if cpuProfile != "" {
			f, err := os.Create(cpuProfile)
			if err != nil {
				return fmt.Errorf("failed to create CPU profile: %w", err)
			}
			cpuProfileFile = f
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				return fmt.Errorf("failed to start CPU profile: %w", err)
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "CPU profiling enabled, writing to %s\n", cpuProfile)
			}
		}
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if cpuProfileFile != nil {
			pprof.StopCPUProfile()
			cpuProfileFile.Close()
			if verbose {
				fmt.Fprintf(os.Stderr, "CPU profile written to %s\n", cpuProfile)
			}
		}

		if memProfile != "" {
			f, err := os.Create(memProfile)
			if err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Memory profile written to %s\n", memProfile)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: auto-discover)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&incremental, "incremental", true, "reuse cache state between builds")

	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "write memory profile to file")
}
