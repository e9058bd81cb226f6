package webui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

var lsAssets bool

// lsCmd
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List WebUI flavors and their install state",
	Run: func(cmd *cobra.Command, args []string) {
		store := openSettings()
		current := store.ReadString("WEBUI.current", "")

		if lsAssets {
			flavor := current
			if flavor == "" {
				flavor = webuipkg.DefaultFlavor
			}
			listAssets(webuipkg.Get(flavor))
			return
		}

		type row struct {
			Name      string `json:"name"`
			Installed bool   `json:"installed"`
			Current   bool   `json:"current"`
			Path      string `json:"path"`
		}
		var rows []row
		for _, flavor := range webuipkg.Flavors() {
			profile := webuipkg.Get(flavor)
			dir := profile.InstallPath(CLIOptions.InstallRoot)
			_, err := os.Stat(filepath.Join(dir, profile.MainScript))
			rows = append(rows, row{
				Name:      flavor,
				Installed: err == nil,
				Current:   flavor == current,
				Path:      dir,
			})
		}

		if CLIOptions.Json {
			json, err := pkg.ToJson(rows, CLIOptions.PrettyJson)
			if err != nil {
				slog.Error("Failed to convert list to json:", "error", err)
				os.Exit(1)
			}
			fmt.Println(json)
			return
		}
		for _, r := range rows {
			marker := " "
			if r.Current {
				marker = "*"
			}
			state := "not installed"
			if r.Installed {
				state = "installed"
			}
			fmt.Printf("%s %-12s %-14s %s\n", marker, r.Name, state, r.Path)
		}
	},
}

// listAssets prints the downloaded files under each of the flavor's category
// directories.
func listAssets(profile *webuipkg.Profile) {
	paths := profile.ResolvePaths(CLIOptions.InstallRoot)
	for _, category := range webuipkg.Categories {
		dir := paths[category]
		files, err := pkg.ListFiles(dir, true, true)
		if err != nil || len(files) == 0 {
			continue
		}
		fmt.Printf("%s (%s):\n", category, dir)
		for _, f := range files {
			fmt.Printf("  %s\n", f)
		}
	}
}

func InitLS(webuiCmd *cobra.Command) {
	webuiCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&lsAssets, "assets", "a", false, "List downloaded files for the current WebUI instead of flavors")
}
