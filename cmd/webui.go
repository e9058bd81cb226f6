package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/cmd/webui"
)

// webuiCmd represents the webui command group
var webuiCmd = &cobra.Command{
	Use:   "webui",
	Short: "Manage installed WebUI flavors",
	Long:  `Manage installed WebUI flavors`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				log.Fatalf("Error: %v", err)
			}
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(webuiCmd)

	// hand over cli options to the webui package
	CLIOptions.ApplyEnvironment()
	webui.SetLocalOptions(&CLIOptions)

	// install/launch sit at the top level, management under the group
	webui.InitInstall(rootCmd)
	webui.InitLaunch(rootCmd)
	webui.InitLS(webuiCmd)
	webui.InitUpdate(webuiCmd)
	webui.InitRM(webuiCmd)
}
