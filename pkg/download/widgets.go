package download

import (
	"strings"

	"github.com/sdcli/sdcli/pkg/catalog"
	"github.com/sdcli/sdcli/pkg/settings"
)

// widget keys under the WIDGETS namespace; "<table>" holds comma-separated
// names, "<table>_num" a free-text numeric selection.
var widgetTables = []struct {
	nameKey string
	numKey  string
	table   string
}{
	{"model", "model_num", catalog.CategoryModel},
	{"vae", "vae_num", catalog.CategoryVAE},
	{"lora", "lora_num", catalog.CategoryLoRA},
	{"controlnet", "controlnet_num", catalog.CategoryControlNet},
	{"embedding", "embedding_num", catalog.CategoryEmbedding},
	{"extensions", "", catalog.CategoryExtension},
}

// FromSettings builds the full job list a saved widget state describes:
// per-table name and numeric selections, free-form custom URLs, and the
// empowerment text block. The result is de-duplicated in first-seen order.
func (r *Resolver) FromSettings(store *settings.Store) []Job {
	var jobs []Job

	for _, wt := range widgetTables {
		names := store.ReadString("WIDGETS."+wt.nameKey, "")
		if names != "" {
			jobs = append(jobs, r.FromNames(wt.table, splitSelection(names))...)
		}
		if wt.numKey == "" {
			continue
		}
		nums := store.ReadString("WIDGETS."+wt.numKey, "")
		if nums != "" {
			jobs = append(jobs, r.FromNumbers(wt.table, nums)...)
		}
	}

	if urls := store.ReadString("WIDGETS.custom_file_urls", ""); urls != "" {
		// the field is a single comma/newline separated line in saved state
		jobs = append(jobs, ParseCustomText(strings.ReplaceAll(urls, ",", "\n"))...)
	}
	if text := store.ReadString("WIDGETS.empowerment", ""); text != "" {
		jobs = append(jobs, ParseCustomText(text)...)
	}

	return Dedupe(jobs)
}

func splitSelection(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
