package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lxcforge/internal/recipe"
	"lxcforge/internal/report"
)

// allCmd provisions every recipe concurrently, the way the CI pipeline
// exercises them.
var allCmd = &cobra.Command{
	Use:   "all [prefix]",
	Short: "Provision the postgresql, django and pydev containers concurrently",
	Long: `Runs every recipe under the same prefix at once. The combined details
are printed as one JSON object keyed by recipe once all runs finish; if
any recipe fails, its container is torn down and the command fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAll,
}

func runAll(cmd *cobra.Command, args []string) error {
	prefix, err := prefixFromArgs(args)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	var mu sync.Mutex
	results := make(map[string]report.Fields, len(recipe.Kinds))

	for _, kind := range recipe.Kinds {
		g.Go(func() error {
			fields, err := provisionOne(ctx, kind, prefix)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			mu.Lock()
			results[kind] = fields
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return report.WriteAll(os.Stdout, results)
}
