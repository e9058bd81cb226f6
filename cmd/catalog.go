package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/catalog"
)

// catalogCmd lists the embedded asset tables
var catalogCmd = &cobra.Command{
	Use:   "catalog [category]",
	Short: "List known models, VAEs, LoRAs, ControlNets, embeddings and extensions",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := catalog.Load()
		if err != nil {
			slog.Error("could not load asset catalog", "error", err)
			os.Exit(1)
		}

		categories := cat.Categories()
		if len(args) > 0 {
			if _, ok := cat.Table(args[0]); !ok {
				slog.Error("unknown category", "category", args[0], "known", strings.Join(categories, ", "))
				os.Exit(1)
			}
			categories = []string{args[0]}
		}

		if CLIOptions.Json {
			out := map[string][]catalog.Entry{}
			for _, category := range categories {
				table, _ := cat.Table(category)
				out[category] = table.Entries
			}
			json, err := pkg.ToJson(out, CLIOptions.PrettyJson)
			if err != nil {
				slog.Error("Failed to convert catalog to json:", "error", err)
				os.Exit(1)
			}
			fmt.Println(json)
			return
		}

		for _, category := range categories {
			table, _ := cat.Table(category)
			fmt.Printf("%s (%d):\n", category, table.Len())
			for i, e := range table.Entries {
				fmt.Printf("  %2d. %s\n", i+1, e.Name)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
