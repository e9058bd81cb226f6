package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/system"
)

// systemCmd represents the system command group
var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Inspect the host system",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				log.Fatalf("Error: %v", err)
			}
			return
		}
	},
}

// systemInfoCmd
var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report CPU and RAM, with suggested launch flags for small hosts",
	Run: func(cmd *cobra.Command, args []string) {
		info := system.Probe()

		if CLIOptions.Json {
			json, err := pkg.ToJson(info, CLIOptions.PrettyJson)
			if err != nil {
				slog.Error("Failed to convert system info to json:", "error", err)
				os.Exit(1)
			}
			fmt.Println(json)
			return
		}

		fmt.Printf("OS:        %s/%s\n", info.OS, info.Arch)
		if info.CPUModel != "" {
			fmt.Printf("CPU:       %s\n", info.CPUModel)
		}
		fmt.Printf("Cores:     %d physical, %d logical\n", info.PhysicalCores, info.LogicalCores)
		fmt.Printf("RAM:       %d MB total, %d MB available\n", info.TotalRAMMB, info.AvailableRAMMB)
		if len(info.SuggestedFlags) > 0 {
			fmt.Printf("Suggested launch flags: %s\n", strings.Join(info.SuggestedFlags, " "))
		}
	},
}

func init() {
	rootCmd.AddCommand(systemCmd)
	systemCmd.AddCommand(systemInfoCmd)
}
