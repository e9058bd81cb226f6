package webui

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

// rmCmd
var rmCmd = &cobra.Command{
	Use:   "rm <flavor>",
	Short: "Remove a WebUI checkout",
	Long: `Remove a WebUI checkout. The shared virtual environment and downloaded
models outside the checkout are kept.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flavor := args[0]
		if !webuipkg.Known(flavor) {
			slog.Error("unknown WebUI flavor", "flavor", flavor)
			os.Exit(1)
		}
		profile := webuipkg.Get(flavor)
		dir := profile.InstallPath(CLIOptions.InstallRoot)
		if _, err := os.Stat(dir); err != nil {
			fmt.Printf("%s is not installed\n", profile.Name)
			return
		}

		if !CLIOptions.Yes {
			ok, err := pkg.YesNo(fmt.Sprintf("Remove %s at %s?", profile.Name, dir), false)
			if err != nil || !ok {
				fmt.Println("Aborted")
				return
			}
		}

		if err := os.RemoveAll(dir); err != nil {
			slog.Error("could not remove checkout", "path", dir, "error", err)
			os.Exit(1)
		}

		store := openSettings()
		if store.ReadString("WEBUI.current", "") == profile.Name {
			if err := store.Save("WEBUI.current", ""); err != nil {
				slog.Error("could not clear current WebUI", "error", err)
			}
		}
		fmt.Printf("Removed %s\n", profile.Name)
	},
}

func InitRM(webuiCmd *cobra.Command) {
	webuiCmd.AddCommand(rmCmd)
}
