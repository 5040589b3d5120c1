package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func resolveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <uri>",
		Short: "Resolve a URI to its route chain",
		Long: `Resolve a URI against the routes of the manifest and print the
chain of definitions from root to leaf with the parsed parameters.

Examples:
  wpm resolve /inbox/42
  wpm resolve "/search?q=go#top"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := g.app()
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Registry().Resolve(args[0])
			if err != nil {
				return err
			}
			success("%s matched %s", args[0], res.Match.Pattern)
			for i, def := range res.Chain {
				line := strings.Repeat("  ", i) + def.FullPath
				if def.Template != "" {
					line += "  template=" + def.Template
				}
				info("%s", line)
			}
			for _, name := range slices.Sorted(maps.Keys(res.Match.Params)) {
				info("arg %s = %q", name, res.Match.Params[name])
			}
			for _, name := range slices.Sorted(maps.Keys(res.Match.Query)) {
				info("query %s = %v", name, res.Match.Query[name])
			}
			if res.Match.HasHash {
				info("hash = %q", res.Match.Hash)
			}
			return nil
		},
	}
}

func routesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered routes",
		Long: `List every full route path of the manifest. Nested routes whose
parent is not declared are reported as waiting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := g.app()
			if err != nil {
				return err
			}
			defer app.Close()

			paths := app.Registry().Paths()
			if len(paths) == 0 {
				warn("no routes in %s", app.Config().Resolve(app.Config().Paths.Manifest))
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			pending := app.Registry().Pending()
			for _, parent := range slices.Sorted(maps.Keys(pending)) {
				warn("%s waits for %s", strings.Join(pending[parent], ", "), parent)
			}
			return nil
		},
	}
}
