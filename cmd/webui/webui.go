package webui

import (
	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/settings"
	webuipkg "github.com/sdcli/sdcli/pkg/webui"
)

var (
	CLIOptions *pkg.Options
)

func SetLocalOptions(options *pkg.Options) {
	CLIOptions = options
}

func openSettings() *settings.Store {
	return settings.NewStore(CLIOptions.SettingsPath)
}

// resolveFlavor picks the explicit argument when given, otherwise the saved
// WEBUI.current, otherwise the default.
func resolveFlavor(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	store := openSettings()
	return store.ReadString("WEBUI.current", webuipkg.DefaultFlavor)
}
