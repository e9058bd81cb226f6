package download

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ToolStrategy shells out to an external downloader. Argv is always built as
// a list, never a shell string. Auth headers never enter argv: they are
// written to a short-lived 0600 temp file the tool reads, so tokens don't
// show up in process listings.
type ToolStrategy struct {
	name string
	// tokens for gated hosts, empty when unconfigured
	CivitaiToken     string
	HuggingfaceToken string

	// headerLine renders the auth header in the tool's config-file syntax
	headerLine func(header string) string
	// buildArgs returns the argv tail and any extra child env entries;
	// headerFile is "" when the host needs no auth
	buildArgs func(rawurl, dest, headerFile string) (args []string, extraEnv []string)
}

func (t *ToolStrategy) Name() string {
	return t.name
}

func (t *ToolStrategy) Available() bool {
	_, err := exec.LookPath(t.name)
	return err == nil
}

func (t *ToolStrategy) authHeader(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	token := ""
	switch {
	case strings.HasSuffix(host, "civitai.com"):
		token = t.CivitaiToken
	case strings.HasSuffix(host, "huggingface.co"):
		token = t.HuggingfaceToken
	}
	if token == "" {
		return ""
	}
	return "Authorization: Bearer " + token
}

func (t *ToolStrategy) Fetch(ctx context.Context, rawurl string, dest string) error {
	bin, err := exec.LookPath(t.name)
	if err != nil {
		// distinct from a tool that ran and failed
		return ErrToolMissing
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	headerFile := ""
	if header := t.authHeader(rawurl); header != "" {
		f, err := os.CreateTemp("", "sdcli-auth-*")
		if err != nil {
			return fmt.Errorf("creating auth file: %w", err)
		}
		headerFile = f.Name()
		defer os.Remove(headerFile)
		if err := os.Chmod(headerFile, 0600); err != nil {
			f.Close()
			return err
		}
		if _, err := f.WriteString(t.headerLine(header) + "\n"); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}

	args, extraEnv := t.buildArgs(rawurl, dest, headerFile)
	cmd := exec.CommandContext(ctx, bin, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timed out after %s", t.name, fetchTimeout)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", t.name, err, tail(string(out)))
	}
	return nil
}

// tail keeps error output readable when a tool dumps pages of progress text.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}

// NewAria2c passes the auth header through an aria2 config file
// (--conf-path).
func NewAria2c(civitaiToken, huggingfaceToken string) *ToolStrategy {
	return &ToolStrategy{
		name:             "aria2c",
		CivitaiToken:     civitaiToken,
		HuggingfaceToken: huggingfaceToken,
		headerLine: func(header string) string {
			return "header=" + header
		},
		buildArgs: func(rawurl, dest, headerFile string) ([]string, []string) {
			args := []string{
				"--dir", filepath.Dir(dest),
				"--out", filepath.Base(dest),
				"--max-connection-per-server", "4",
				"--split", "4",
				"--continue", "true",
			}
			if headerFile != "" {
				args = append(args, "--conf-path="+headerFile)
			}
			return append(args, rawurl), nil
		},
	}
}

// NewWget passes the auth header through a wgetrc handed over via the WGETRC
// environment variable.
func NewWget(civitaiToken, huggingfaceToken string) *ToolStrategy {
	return &ToolStrategy{
		name:             "wget",
		CivitaiToken:     civitaiToken,
		HuggingfaceToken: huggingfaceToken,
		headerLine: func(header string) string {
			return "header = " + header
		},
		buildArgs: func(rawurl, dest, headerFile string) ([]string, []string) {
			args := []string{
				"-O", dest,
				"--no-check-certificate",
				"--progress=bar:force",
			}
			var env []string
			if headerFile != "" {
				env = []string{"WGETRC=" + headerFile}
			}
			return append(args, rawurl), env
		},
	}
}

// NewCurl passes the auth header with -H @file (curl reads headers from the
// file).
func NewCurl(civitaiToken, huggingfaceToken string) *ToolStrategy {
	return &ToolStrategy{
		name:             "curl",
		CivitaiToken:     civitaiToken,
		HuggingfaceToken: huggingfaceToken,
		headerLine: func(header string) string {
			return header
		},
		buildArgs: func(rawurl, dest, headerFile string) ([]string, []string) {
			args := []string{
				"-L",
				"-o", dest,
				"--progress-bar",
			}
			if headerFile != "" {
				args = append(args, "-H", "@"+headerFile)
			}
			return append(args, rawurl), nil
		},
	}
}
