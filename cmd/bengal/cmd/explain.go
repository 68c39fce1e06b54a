package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/discover"
	"github.com/bengal-go/bengal/pkg/sitebuild"
)

const explainContentDir = "content"

var explainPick bool

var explainCmd = &cobra.Command{
	Use:   "explain [page]",
	Short: "Show why a page would or wouldn't rebuild",
	Long: `Explain loads the site and the current cache state, then reports
the rebuild reason the incremental core would record for the named page on
the next build — without writing any output.

With --pick, a fuzzy finder over every discovered page replaces the
positional argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().BoolVar(&explainPick, "pick", false, "fuzzy-pick a page instead of naming one")
}

func runExplain(_ *cobra.Command, args []string) error {
	site, err := discover.Walk(explainContentDir, "**/*.md", "data", "templates", "public")
	if err != nil {
		return err
	}

	var target string
	var key cachekey.Key
	switch {
	case explainPick:
		pages := site.Pages()
		idx, err := fuzzyfinder.Find(pages, func(i int) string {
			return fmt.Sprintf("%s  (%s)", pages[i].Title, pages[i].SourcePath)
		})
		if err != nil {
			return fmt.Errorf("picking a page: %w", err)
		}
		target = pages[idx].SourcePath
		key = pages[idx].Key
	case len(args) == 1:
		target = args[0]
		key = cachekey.ContentKey(filepath.Join(explainContentDir, target), explainContentDir)
	default:
		return fmt.Errorf("explain requires a page path or --pick")
	}

	result, err := sitebuild.Run(sitebuild.Options{Root: ".", Incremental: true, DryRun: true})
	if err != nil {
		return err
	}

	reason, ok := result.Reasons[key]
	if !ok {
		fmt.Printf("%s: unchanged, would not rebuild\n", target)
		return nil
	}
	fmt.Printf("%s: would rebuild (%s)\n", target, reason)
	return nil
}
