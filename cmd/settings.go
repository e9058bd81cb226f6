package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/settings"
)

// settingsCmd represents the settings command group
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write persistent settings",
	Long: `Read and write persistent settings stored in settings.json. Keys are
dot-separated paths: WEBUI.current, ENVIRONMENT.civitai_token,
WIDGETS.model, ...`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				log.Fatalf("Error: %v", err)
			}
			return
		}
	},
}

// settingsGetCmd
var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a setting, or the whole document without a key",
	Run: func(cmd *cobra.Command, args []string) {
		store := settings.NewStore(CLIOptions.SettingsPath)
		var value interface{}
		if len(args) == 0 {
			value = store.Load()
		} else {
			value = store.Read(args[0], nil)
			if value == nil {
				fmt.Println("(not set)")
				return
			}
		}
		json, err := pkg.ToJson(value, CLIOptions.PrettyJson)
		if err != nil {
			slog.Error("Failed to convert setting to json:", "error", err)
			os.Exit(1)
		}
		fmt.Println(json)
	},
}

// settingsSetCmd
var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := settings.NewStore(CLIOptions.SettingsPath)
		if err := store.EnsureStructure(); err != nil {
			slog.Error("could not initialize settings file", "error", err)
			os.Exit(1)
		}
		if err := store.Save(args[0], coerceValue(args[1])); err != nil {
			slog.Error("could not write setting", "key", args[0], "error", err)
			os.Exit(1)
		}
	},
}

// coerceValue keeps booleans and numbers typed instead of storing everything
// as strings.
func coerceValue(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
