package webui

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

// updateCmd
var updateCmd = &cobra.Command{
	Use:   "update [flavor]",
	Short: "Update an installed WebUI checkout to the latest revision",
	Run: func(cmd *cobra.Command, args []string) {
		flavor := resolveFlavor(args)
		if !webuipkg.Known(flavor) {
			slog.Error("unknown WebUI flavor", "flavor", flavor)
			os.Exit(1)
		}
		profile := webuipkg.Get(flavor)

		inst := webuipkg.NewInstaller(profile, CLIOptions.InstallRoot, CLIOptions.VenvPath)
		inst.Quiet = CLIOptions.Quiet
		if err := inst.InstallWebUI(cmd.Context(), true); err != nil {
			slog.Error("update failed", "flavor", profile.Name, "error", err)
			os.Exit(1)
		}
	},
}

func InitUpdate(webuiCmd *cobra.Command) {
	webuiCmd.AddCommand(updateCmd)
}
