package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bengal-go/bengal/pkg/sitebuild"
)

var buildFull bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site",
	Long: `Build discovers content, asks the incremental cache what needs
rebuilding, renders that set, and persists cache state for the next run.

Example usage:
  bengal build              # Build, reusing cache state where possible
  bengal build --full       # Force every page to rebuild
  bengal build --incremental=false   # Start from a cold cache this run`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVar(&buildFull, "full", false, "force every page to rebuild, ignoring what changed")
}

func runBuild(_ *cobra.Command, _ []string) error {
	result, err := sitebuild.Run(sitebuild.Options{
		Root:        ".",
		ConfigPath:  cfgFile,
		OutputDir:   outputDir,
		Incremental: incremental,
		Full:        buildFull,
		Verbose:     verbose,
	})
	if err != nil {
		return err
	}

	if result.ForceFull {
		fmt.Println("full rebuild")
	}
	fmt.Printf("rendered %d page(s), skipped %d in %s\n", result.PagesRendered, result.PagesSkipped, result.Duration)

	if verbose {
		for key, reason := range result.Reasons {
			fmt.Printf("  %s: %s\n", key, reason)
		}
	}

	return nil
}
