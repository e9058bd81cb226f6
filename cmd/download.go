package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/catalog"
	"github.com/sdcli/sdcli/pkg/download"
	"github.com/sdcli/sdcli/pkg/notify"
	"github.com/sdcli/sdcli/pkg/settings"
	"github.com/sdcli/sdcli/pkg/webui"
)

var (
	downloadModels      string
	downloadVAEs        string
	downloadLoRAs       string
	downloadControlNets string
	downloadEmbeddings  string
	downloadFile        string
	downloadFromSaved   bool
	downloadWorkers     int
)

// downloadCmd resolves selections into jobs and runs them through the
// strategy chain
var downloadCmd = &cobra.Command{
	Use:   "download [url|selection...]",
	Short: "Download models, VAEs, LoRAs, ControlNets, embeddings and more",
	Long: `Download assets into the current WebUI's directory layout. Positional
arguments use the custom-URL syntax: bare URLs, category tags ($ckpt, $lora,
$vae, $ext, $emb, $cnet, ...) that stick for following URLs, and [filename]
overrides:

  sdcli download '$lora' https://example.com/detail.safetensors
  sdcli download 'https://civitai.com/api/download/models/12345[thing.safetensors]'

Catalog selections go through flags and accept names, ALL, or number strings:

  sdcli download --models "Stable Diffusion 1.5, SDXL Base 1.0" --vaes 1`,
	Run: func(cmd *cobra.Command, args []string) {
		store := settings.NewStore(CLIOptions.SettingsPath)
		cat, err := catalog.Load()
		if err != nil {
			slog.Error("could not load asset catalog", "error", err)
			os.Exit(1)
		}
		resolver := download.NewResolver(cat)

		jobs := collectJobs(resolver, store, args)
		if len(jobs) == 0 {
			fmt.Println("Nothing to download")
			return
		}

		flavor := store.ReadString("WEBUI.current", webui.DefaultFlavor)
		profile := webui.Get(flavor)

		civitai := store.ReadString("ENVIRONMENT.civitai_token", CLIOptions.CivitaiToken)
		huggingface := store.ReadString("ENVIRONMENT.huggingface_token", CLIOptions.HuggingfaceToken)

		http := download.NewHTTPStrategy(civitai, huggingface, CLIOptions.Quiet)
		dispatcher := download.NewDispatcher(http, profile, CLIOptions.InstallRoot)
		dispatcher.Notifier = notify.NewConsole()
		dispatcher.History = download.NewHistory(CLIOptions.HomePath)
		dispatcher.Quiet = CLIOptions.Quiet

		queue := download.NewQueue(dispatcher, downloadWorkers)
		batch := queue.Run(cmd.Context(), jobs)

		fmt.Printf("Done: %d succeeded, %d failed\n", batch.Succeeded(), batch.Failed())
		if batch.Succeeded() == 0 && batch.Failed() > 0 {
			os.Exit(1)
		}
	},
}

// collectJobs merges every selection source: catalog flags, saved widget
// state, a batch file and positional custom-URL entries.
func collectJobs(resolver *download.Resolver, store *settings.Store, args []string) []download.Job {
	var jobs []download.Job

	flagTables := []struct {
		selection string
		table     string
	}{
		{downloadModels, catalog.CategoryModel},
		{downloadVAEs, catalog.CategoryVAE},
		{downloadLoRAs, catalog.CategoryLoRA},
		{downloadControlNets, catalog.CategoryControlNet},
		{downloadEmbeddings, catalog.CategoryEmbedding},
	}
	for _, ft := range flagTables {
		if ft.selection == "" {
			continue
		}
		if isNumericSelection(ft.selection) {
			jobs = append(jobs, resolver.FromNumbers(ft.table, ft.selection)...)
		} else {
			jobs = append(jobs, resolver.FromNames(ft.table, strings.Split(ft.selection, ","))...)
		}
	}

	if downloadFromSaved {
		jobs = append(jobs, resolver.FromSettings(store)...)
	}

	if downloadFile != "" {
		data, err := os.ReadFile(downloadFile)
		if err != nil {
			slog.Error("could not read batch file", "path", downloadFile, "error", err)
			os.Exit(1)
		}
		text := string(data)
		if strings.Contains(text, `"`) {
			jobs = append(jobs, download.ParseJobSpec(text)...)
		} else {
			jobs = append(jobs, download.ParseCustomText(text)...)
		}
	}

	if len(args) > 0 {
		jobs = append(jobs, download.ParseCustomText(strings.Join(args, "\n"))...)
	}

	return download.Dedupe(jobs)
}

func isNumericSelection(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != ' ' && r != ',' {
			return false
		}
	}
	return true
}

// statsCmd
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the download history",
	Run: func(cmd *cobra.Command, args []string) {
		stats := download.NewHistory(CLIOptions.HomePath).Summarize()
		if CLIOptions.Json {
			json, err := pkg.ToJson(stats, CLIOptions.PrettyJson)
			if err != nil {
				slog.Error("Failed to convert stats to json:", "error", err)
				os.Exit(1)
			}
			fmt.Println(json)
			return
		}
		fmt.Printf("Total downloads: %d (%d succeeded, %d failed)\n", stats.Total, stats.Succeeded, stats.Failed)
		for category, count := range stats.ByCat {
			fmt.Printf("  %-12s %d\n", category, count)
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.AddCommand(statsCmd)

	downloadCmd.Flags().StringVarP(&downloadModels, "models", "m", "", "Model selection: names, ALL, or a number string")
	downloadCmd.Flags().StringVarP(&downloadVAEs, "vaes", "", "", "VAE selection: names, ALL, or a number string")
	downloadCmd.Flags().StringVarP(&downloadLoRAs, "loras", "", "", "LoRA selection: names, ALL, or a number string")
	downloadCmd.Flags().StringVarP(&downloadControlNets, "controlnets", "", "", "ControlNet selection: names, ALL, or a number string")
	downloadCmd.Flags().StringVarP(&downloadEmbeddings, "embeddings", "", "", "Embedding selection: names, ALL, or a number string")
	downloadCmd.Flags().StringVarP(&downloadFile, "file", "f", "", "Batch file: quoted \"url\" \"dir\" \"filename\" entries or custom-URL text")
	downloadCmd.Flags().BoolVarP(&downloadFromSaved, "from-settings", "s", false, "Include the selections saved in settings.json")
	downloadCmd.Flags().IntVarP(&downloadWorkers, "workers", "w", download.DefaultWorkers, "Concurrent download workers")
}
