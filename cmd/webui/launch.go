package webui

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

var launchDryRun bool
var launchEnvName string

// launchCmd starts an installed WebUI. Everything after "--" is passed to
// the WebUI itself and overrides profile defaults with the same flag.
var launchCmd = &cobra.Command{
	Use:   "launch [flavor] [-- webui-args]",
	Short: "Launch an installed WebUI flavor",
	Long: `Launch an installed WebUI flavor. Arguments after -- are handed to the
WebUI process and override the flavor's default flags:

  sdcli launch Forge -- --theme=light --xformers`,
	Run: func(cmd *cobra.Command, args []string) {
		var flavorArgs, webuiArgs []string
		if lenAt := cmd.ArgsLenAtDash(); lenAt >= 0 {
			flavorArgs, webuiArgs = args[:lenAt], args[lenAt:]
		} else {
			flavorArgs = args
		}

		flavor := resolveFlavor(flavorArgs)
		if !webuipkg.Known(flavor) {
			slog.Error("unknown WebUI flavor", "flavor", flavor)
			os.Exit(1)
		}
		profile := webuipkg.Get(flavor)

		l := webuipkg.NewLauncher(profile, CLIOptions.InstallRoot, CLIOptions.VenvPath)
		l.UserArgs = webuiArgs
		l.Quiet = CLIOptions.Quiet

		store := openSettings()
		l.CivitaiToken = store.ReadString("ENVIRONMENT.civitai_token", CLIOptions.CivitaiToken)
		l.HuggingfaceToken = store.ReadString("ENVIRONMENT.huggingface_token", CLIOptions.HuggingfaceToken)

		switch launchEnvName {
		case "":
			// keep detected environment
		case "local":
			l.Environment = webuipkg.EnvLocal
		case "colab":
			l.Environment = webuipkg.EnvColab
		case "kaggle":
			l.Environment = webuipkg.EnvKaggle
		default:
			slog.Error("unknown environment", "env", launchEnvName)
			os.Exit(1)
		}

		if launchDryRun {
			for _, arg := range l.Argv() {
				cmd.Println(arg)
			}
			return
		}

		if err := l.Launch(cmd.Context()); err != nil {
			slog.Error("launch failed", "flavor", profile.Name, "error", err)
			os.Exit(1)
		}
	},
}

func InitLaunch(parent *cobra.Command) {
	parent.AddCommand(launchCmd)
	launchCmd.Flags().BoolVarP(&launchDryRun, "dry-run", "n", false, "Print the assembled command line without launching")
	launchCmd.Flags().StringVarP(&launchEnvName, "env", "", "", "Force the environment (local, colab, kaggle) instead of detecting it")
}
