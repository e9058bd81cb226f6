package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sdcli/sdcli/pkg/notify"
	"github.com/sdcli/sdcli/pkg/webui"
)

// Result records the outcome of one job. Exactly one of Path/Err is
// meaningful; Skipped marks a file that was already present and valid.
type Result struct {
	Job      Job
	Path     string
	Skipped  bool
	Err      error
	Kind     FailKind
	Strategy string
}

// FilenameResolver resolves a deferred filename from response headers before
// any strategy runs. HTTPStrategy implements it.
type FilenameResolver interface {
	ResolveRemoteFilename(ctx context.Context, rawurl string) (string, error)
}

// Dispatcher routes one job through an ordered strategy chain, falling
// through on tool-missing and transient failures. The chain order is fixed at
// construction; a dispatcher is safe for concurrent use by the queue workers.
type Dispatcher struct {
	Strategies []Strategy
	Profile    *webui.Profile
	Root       string
	Notifier   notify.Notifier
	Resolver   FilenameResolver
	History    *History
	Quiet      bool
}

// NewDispatcher builds the standard chain: direct HTTP first, then aria2c,
// wget and curl as external fallbacks.
func NewDispatcher(http *HTTPStrategy, profile *webui.Profile, root string) *Dispatcher {
	return &Dispatcher{
		Strategies: []Strategy{
			http,
			NewAria2c(http.CivitaiToken, http.HuggingfaceToken),
			NewWget(http.CivitaiToken, http.HuggingfaceToken),
			NewCurl(http.CivitaiToken, http.HuggingfaceToken),
		},
		Profile:  profile,
		Root:     root,
		Resolver: http,
	}
}

// Run executes one job end to end: destination resolution, deferred filename
// lookup, idempotency check, the strategy chain, verification and archive
// unpacking.
func (d *Dispatcher) Run(ctx context.Context, job Job) Result {
	res := Result{Job: job}

	destDir := job.DestDir
	if destDir == "" {
		destDir = d.Profile.CategoryPath(d.Root, job.Category)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		res.Err = fmt.Errorf("creating %s: %w", destDir, err)
		res.Kind = KindPrecondition
		return res
	}

	filename := job.Filename
	if job.DeferName || filename == "" {
		name, err := d.resolveDeferred(ctx, job.URL)
		if err != nil {
			res.Err = fmt.Errorf("resolving filename for %s: %w", job.URL, err)
			res.Kind = KindTransient
			notify.Error(d.Notifier, "Download", "could not resolve filename: "+job.URL)
			return res
		}
		filename = name
	}
	dest := filepath.Join(destDir, filename)

	if VerifyFile(dest) {
		res.Path = dest
		res.Skipped = true
		if !d.Quiet {
			notify.Info(d.Notifier, "Download", "already present, skipping "+filename)
		}
		return res
	}

	res.Err, res.Kind, res.Strategy = d.fetch(ctx, job.URL, dest)
	if res.Err != nil {
		notify.Error(d.Notifier, "Download", fmt.Sprintf("%s failed: %v", filename, res.Err))
		d.record(job, dest, res)
		return res
	}

	res.Path = dest
	if strings.EqualFold(filepath.Ext(dest), ".zip") {
		if err := unpackZip(dest, destDir); err != nil {
			res.Err = fmt.Errorf("unpacking %s: %w", filename, err)
			res.Kind = KindPrecondition
			return res
		}
		os.Remove(dest)
	}
	if !d.Quiet {
		notify.Success(d.Notifier, "Download", "downloaded "+filename)
	}
	d.record(job, dest, res)
	return res
}

// fetch walks the strategy chain, scrubbing partial files between attempts.
// Unavailable tools fall through silently; the last real error wins.
func (d *Dispatcher) fetch(ctx context.Context, rawurl, dest string) (error, FailKind, string) {
	var lastErr error
	kind := KindUnavailable
	used := ""

	for _, s := range d.Strategies {
		if !s.Available() {
			continue
		}
		slog.Debug("trying strategy", "strategy", s.Name(), "url", rawurl)
		err := s.Fetch(ctx, rawurl, dest)
		if err == nil {
			if !VerifyFile(dest) {
				removePartial(dest)
				lastErr = fmt.Errorf("%s produced an invalid file", s.Name())
				kind = KindTransient
				used = s.Name()
				continue
			}
			return nil, KindNone, s.Name()
		}
		removePartial(dest)
		if err == ErrToolMissing {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err(), KindTransient, s.Name()
		}
		lastErr = err
		kind = KindTransient
		used = s.Name()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no download strategy available for %s", rawurl)
	}
	return lastErr, kind, used
}

func (d *Dispatcher) resolveDeferred(ctx context.Context, rawurl string) (string, error) {
	if d.Resolver == nil {
		return "", fmt.Errorf("no filename resolver configured")
	}
	hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return d.Resolver.ResolveRemoteFilename(hctx, rawurl)
}

func (d *Dispatcher) record(job Job, dest string, res Result) {
	if d.History == nil {
		return
	}
	rec := Record{
		URL:      job.URL,
		Path:     dest,
		Category: job.Category,
		Strategy: res.Strategy,
		When:     time.Now().UTC(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := d.History.Append(rec); err != nil {
		slog.Warn("could not record download history", "error", err)
	}
}

// keyword -> category, checked in order against the lowercased URL
var urlCategoryHints = []struct {
	keyword  string
	category string
}{
	{"controlnet", webui.CatControlNet},
	{"control_", webui.CatControlNet},
	{"upscale", webui.CatUpscale},
	{"esrgan", webui.CatUpscale},
	{"embedding", webui.CatEmbedding},
	{"textual", webui.CatEmbedding},
	{"lora", webui.CatLoRA},
	{"vae", webui.CatVAE},
}

// CategoryFromURL guesses a routing category from URL keywords, defaulting
// to the model directory.
func CategoryFromURL(rawurl string) string {
	lower := strings.ToLower(rawurl)
	for _, h := range urlCategoryHints {
		if strings.Contains(lower, h.keyword) {
			return h.category
		}
	}
	return webui.CatModel
}

var jobSpecGroup = regexp.MustCompile(`"([^"]*)"(?:\s+"([^"]*)")?(?:\s+"([^"]*)")?`)

// ParseJobSpec parses the quoted triple form `"url" "dir" "filename"` used by
// batch download files; dir and filename are optional per group.
func ParseJobSpec(spec string) []Job {
	var jobs []Job
	for _, m := range jobSpecGroup.FindAllStringSubmatch(spec, -1) {
		rawurl := strings.TrimSpace(m[1])
		if rawurl == "" {
			continue
		}
		rawurl, bracket := SplitBracketFilename(rawurl)
		rawurl = NormalizeURL(rawurl)
		job := Job{
			Category: CategoryFromURL(rawurl),
			URL:      rawurl,
			DestDir:  strings.TrimSpace(m[2]),
			Filename: strings.TrimSpace(m[3]),
		}
		if job.Filename == "" {
			job.Filename = bracket
		}
		if job.Filename == "" {
			name, deferred := InferFilename(rawurl)
			job.Filename = name
			job.DeferName = deferred
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// unpackZip extracts an archive flat into destDir, refusing entries that
// escape it.
func unpackZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
