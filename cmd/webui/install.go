package webui

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/catalog"
	"github.com/sdcli/sdcli/pkg/notify"
	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

var installExtensions string
var installSetCurrent bool

// installCmd provisions a flavor end to end: venv, checkout, dependencies
var installCmd = &cobra.Command{
	Use:   "install [flavor]",
	Short: "Install a WebUI flavor (venv, checkout, dependencies)",
	Long: `Install a WebUI flavor: create the managed python virtual environment if
needed, clone the WebUI repository and install its requirements. Safe to
re-run; completed steps are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		flavor := resolveFlavor(args)
		if !webuipkg.Known(flavor) {
			slog.Error("unknown WebUI flavor", "flavor", flavor, "known", strings.Join(webuipkg.Flavors(), ", "))
			os.Exit(1)
		}
		profile := webuipkg.Get(flavor)

		inst := webuipkg.NewInstaller(profile, CLIOptions.InstallRoot, CLIOptions.VenvPath)
		inst.Notifier = notify.NewConsole()
		inst.Quiet = CLIOptions.Quiet

		fmt.Printf("Installing %s (state: %s)\n", profile.Name, inst.CurrentState())
		if err := inst.Install(cmd.Context()); err != nil {
			slog.Error("install failed", "flavor", profile.Name, "error", err)
			os.Exit(1)
		}

		if installExtensions != "" {
			repos := extensionRepos(installExtensions)
			if err := inst.InstallExtensions(cmd.Context(), repos); err != nil {
				slog.Error("extension install failed", "error", err)
				os.Exit(1)
			}
		}

		if installSetCurrent {
			store := openSettings()
			if err := store.Save("WEBUI.current", profile.Name); err != nil {
				slog.Error("could not save current WebUI", "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("%s ready (state: %s)\n", profile.Name, inst.CurrentState())
	},
}

// extensionRepos maps catalog extension names (or ALL) to repository URLs;
// anything that is not a known name is treated as a raw repo URL.
func extensionRepos(selection string) []string {
	cat, err := catalog.Load()
	if err != nil {
		slog.Error("could not load asset catalog", "error", err)
		os.Exit(1)
	}
	table, _ := cat.Table(catalog.CategoryExtension)

	var known, raw []string
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "ALL" {
			for _, e := range table.Entries {
				known = append(known, e.URL)
			}
			continue
		}
		if e, ok := cat.Lookup(catalog.CategoryExtension, name); ok {
			known = append(known, e.URL)
			continue
		}
		raw = append(raw, name)
	}
	// a name and its URL may both be given; the union collapses repeats
	return pkg.UnionStringSlices(known, raw)
}

func InitInstall(parent *cobra.Command) {
	parent.AddCommand(installCmd)
	installCmd.Flags().StringVarP(&installExtensions, "extensions", "e", "", "Comma-separated extension names from the catalog, repo URLs, or ALL")
	installCmd.Flags().BoolVarP(&installSetCurrent, "set-current", "c", true, "Record the flavor as the current WebUI in settings")
}
