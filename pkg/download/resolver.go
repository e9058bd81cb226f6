package download

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/sdcli/sdcli/pkg/catalog"
	"github.com/sdcli/sdcli/pkg/webui"
)

// Job is one concrete download: a routing category, a resolved URL and an
// optional explicit filename. Jobs are ephemeral; they are produced by the
// resolver and consumed once by the dispatcher.
type Job struct {
	Category string
	URL      string
	// Filename overrides inference from the URL path when set
	Filename string
	// DestDir overrides category-based directory resolution when set
	DestDir string
	// DeferName marks hosts whose real filename only exists in response headers
	DeferName bool
}

// Resolver turns user-facing selections (names, numbers, ALL, free text) into
// a flat de-duplicated job list. It is deliberately permissive: tokens that
// resolve to nothing are skipped, never fatal, because the input is
// user-typed.
type Resolver struct {
	Catalog *catalog.Catalog
}

func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{Catalog: c}
}

// AllSentinel selects every entry of a table.
const AllSentinel = "ALL"

// tag and long-form category names of the custom-URL mini-language
var categoryTags = map[string]string{
	"$ckpt": webui.CatModel, "model": webui.CatModel,
	"$lora": webui.CatLoRA, "lora": webui.CatLoRA,
	"$vae": webui.CatVAE, "vae": webui.CatVAE,
	"$ext": webui.CatExtension, "extension": webui.CatExtension,
	"$emb": webui.CatEmbedding, "embed": webui.CatEmbedding, "embedding": webui.CatEmbedding,
	"$ad": webui.CatADetailer, "adetailer": webui.CatADetailer,
	"$cnet": webui.CatControlNet, "control": webui.CatControlNet, "controlnet": webui.CatControlNet,
	"$ups": webui.CatUpscale, "upscale": webui.CatUpscale,
	"$clip": webui.CatCLIP, "clip": webui.CatCLIP,
	"$unet": webui.CatUNet, "unet": webui.CatUNet,
	"$vis": webui.CatClipVision, "clip_vision": webui.CatClipVision,
	"$enc": webui.CatEncoder, "encoder": webui.CatEncoder,
	"$diff": webui.CatDiffusers, "diffusers": webui.CatDiffusers,
	"$cfg": webui.CatConfig, "config": webui.CatConfig,
}

// catalog table -> routing category
var tableCategory = map[string]string{
	catalog.CategoryModel:      webui.CatModel,
	catalog.CategoryVAE:        webui.CatVAE,
	catalog.CategoryLoRA:       webui.CatLoRA,
	catalog.CategoryControlNet: webui.CatControlNet,
	catalog.CategoryEmbedding:  webui.CatEmbedding,
	catalog.CategoryExtension:  webui.CatExtension,
}

// FromNames resolves display-name selections against one catalog table.
// The ALL sentinel expands to every entry. Unknown names are skipped.
func (r *Resolver) FromNames(table string, names []string) []Job {
	t, ok := r.Catalog.Table(table)
	if !ok {
		return nil
	}
	category := tableCategory[table]

	var jobs []Job
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "none") {
			continue
		}
		if name == AllSentinel {
			for i := range t.Entries {
				jobs = append(jobs, entryJob(category, &t.Entries[i]))
			}
			continue
		}
		if e, ok := r.Catalog.Lookup(table, name); ok {
			jobs = append(jobs, entryJob(category, e))
		}
	}
	return jobs
}

// FromNumbers resolves a free-text numeric selection (1-based indices into the
// table's data order) using the greedy decomposition of ParseSelectionNumbers.
func (r *Resolver) FromNumbers(table string, input string) []Job {
	t, ok := r.Catalog.Table(table)
	if !ok {
		return nil
	}
	category := tableCategory[table]

	var jobs []Job
	for _, idx := range ParseSelectionNumbers(input, t.Len()) {
		if e, ok := t.At(idx); ok {
			jobs = append(jobs, entryJob(category, e))
		}
	}
	return jobs
}

func entryJob(category string, e *catalog.Entry) Job {
	job := Job{Category: category, URL: NormalizeURL(e.URL), Filename: e.Filename}
	if job.Filename == "" {
		name, deferred := InferFilename(job.URL)
		job.Filename = name
		job.DeferName = deferred
	}
	return job
}

// ParseSelectionNumbers parses a user string of space/comma-separated tokens
// into an ordered list of valid 1-based indices. A digit run without
// separators is decomposed greedily: at each position the longest prefix that
// is an in-range, not-yet-seen index is consumed. A run that cannot be fully
// decomposed contributes nothing at all.
func ParseSelectionNumbers(input string, size int) []int {
	input = strings.ReplaceAll(input, ",", " ")

	var result []int
	seen := make(map[int]bool)

	for _, token := range strings.Fields(input) {
		if token == "" {
			continue
		}
		indices, ok := decomposeDigitRun(token, size, seen)
		if !ok {
			continue
		}
		for _, idx := range indices {
			if !seen[idx] {
				seen[idx] = true
				result = append(result, idx)
			}
		}
	}
	return result
}

func decomposeDigitRun(token string, size int, alreadySeen map[int]bool) ([]int, bool) {
	var indices []int
	local := make(map[int]bool)
	pos := 0
	for pos < len(token) {
		matched := 0
		// longest valid prefix wins
		for end := len(token); end > pos; end-- {
			v, err := strconv.Atoi(token[pos:end])
			if err != nil {
				return nil, false
			}
			if v >= 1 && v <= size && !local[v] && !alreadySeen[v] {
				indices = append(indices, v)
				local[v] = true
				matched = end - pos
				break
			}
		}
		if matched == 0 {
			// no valid decomposition: the whole token is discarded
			return nil, false
		}
		pos += matched
	}
	return indices, true
}

var bracketFilename = regexp.MustCompile(`\[(.+?)\]$`)

// SplitBracketFilename strips a trailing [explicit-filename] from a URL.
func SplitBracketFilename(rawurl string) (string, string) {
	m := bracketFilename.FindStringSubmatch(rawurl)
	if m == nil {
		return rawurl, ""
	}
	return strings.TrimSuffix(rawurl, m[0]), m[1]
}

// NormalizeURL rewrites huggingface blob URLs to resolve and github blob URLs
// to raw so they download file content instead of an HTML viewer page.
func NormalizeURL(rawurl string) string {
	switch {
	case strings.Contains(rawurl, "huggingface.co"):
		return strings.Replace(rawurl, "/blob/", "/resolve/", 1)
	case strings.Contains(rawurl, "github.com"):
		return strings.Replace(rawurl, "/blob/", "/raw/", 1)
	}
	return rawurl
}

// deferredNameHosts have no usable filename in their URL path; the real name
// comes from response headers at fetch time.
var deferredNameHosts = []string{"civitai.com", "drive.google.com"}

// InferFilename derives a destination filename from the URL path. The second
// return is true when the name must be resolved later from response headers.
func InferFilename(rawurl string) (string, bool) {
	u, err := url.Parse(rawurl)
	if err == nil {
		host := strings.ToLower(u.Hostname())
		for _, h := range deferredNameHosts {
			if strings.HasSuffix(host, h) {
				return "", true
			}
		}
		base := path.Base(u.Path)
		if strings.Contains(base, ".") {
			return CleanFilename(base), false
		}
		// some mirrors put the filename in a query parameter instead
		if name := u.Query().Get("filename"); name != "" {
			return CleanFilename(name), false
		}
	}
	return fmt.Sprintf("downloaded_file_%d", time.Now().Unix()), false
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
var collapseSpaces = regexp.MustCompile(`\s+`)

// CleanFilename removes characters that break notebook filesystems and caps
// the length at 200 runes preserving the extension.
func CleanFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(collapseSpaces.ReplaceAllString(name, " "))
	if len(name) > 200 {
		ext := path.Ext(name)
		name = name[:200-len(ext)] + ext
	}
	return name
}

// ParseCustomText parses the free-text custom-URL mini-language. Lines are
// either a bare category tag ("$lora", "vae") that becomes the current
// category for every following URL, a "#" comment, blank, a
// "category:url" prefixed entry, or a bare URL inheriting the current
// category. Before any tag line appears, bare URLs are routed by the URL
// keyword heuristic. URLs may carry a trailing [filename] override.
func ParseCustomText(text string) []Job {
	var jobs []Job
	current := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// bare tag line switches the current category
		if cat, ok := categoryTags[strings.ToLower(line)]; ok {
			current = cat
			continue
		}

		category := current
		// inline "tag:url" prefix (the colon test must not eat "https:")
		if idx := strings.Index(line, ":"); idx > 0 && !strings.HasPrefix(line[idx:], "://") {
			if cat, ok := categoryTags[strings.ToLower(line[:idx])]; ok {
				category = cat
				line = strings.TrimSpace(line[idx+1:])
			}
		}

		for _, entry := range strings.Split(line, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			rawurl, filename := SplitBracketFilename(entry)
			rawurl = NormalizeURL(strings.TrimSpace(rawurl))
			// an active tag wins; otherwise route by URL keywords
			cat := category
			if cat == "" {
				cat = CategoryFromURL(rawurl)
			}
			job := Job{Category: cat, URL: rawurl, Filename: filename}
			if job.Filename == "" {
				name, deferred := InferFilename(rawurl)
				job.Filename = name
				job.DeferName = deferred
			}
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// Dedupe removes jobs whose filename (or URL when the name is deferred) was
// already seen, preserving first-seen order.
func Dedupe(jobs []Job) []Job {
	seen := mapset.NewSet()
	var retv []Job
	for _, job := range jobs {
		key := job.Filename
		if key == "" {
			key = job.URL
		}
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		retv = append(retv, job)
	}
	return retv
}
