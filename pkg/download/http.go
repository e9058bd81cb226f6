package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// HTTPStrategy streams the response body straight to disk. It is tried first
// because it has no external tool dependency.
type HTTPStrategy struct {
	// bearer tokens for gated hosts, empty when unconfigured
	CivitaiToken     string
	HuggingfaceToken string
	Quiet            bool

	client *http.Client
}

func NewHTTPStrategy(civitaiToken, huggingfaceToken string, quiet bool) *HTTPStrategy {
	return &HTTPStrategy{
		CivitaiToken:     civitaiToken,
		HuggingfaceToken: huggingfaceToken,
		Quiet:            quiet,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

func (s *HTTPStrategy) Name() string {
	return "http"
}

func (s *HTTPStrategy) Available() bool {
	return true
}

// authToken returns the bearer token for a gated host, or "" for open hosts.
func (s *HTTPStrategy) authToken(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "civitai.com"):
		return s.CivitaiToken
	case strings.HasSuffix(host, "huggingface.co"):
		return s.HuggingfaceToken
	}
	return ""
}

func (s *HTTPStrategy) Fetch(ctx context.Context, rawurl string, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if token := s.authToken(rawurl); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned non-200 status: %d %s", resp.StatusCode, resp.Status)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	var written int64
	if s.Quiet {
		written, err = io.Copy(f, resp.Body)
	} else {
		_, file := filepath.Split(dest)
		bar := progressbar.DefaultBytes(
			resp.ContentLength,
			fmt.Sprintf("Downloading %s", file),
		)
		written, err = io.Copy(io.MultiWriter(f, bar), resp.Body)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start).Seconds()
	if elapsed > 0 {
		slog.Info("download finished",
			"file", filepath.Base(dest),
			"bytes", written,
			"avg_mbps", float64(written)/(1024*1024)/elapsed)
	}
	return nil
}

// ResolveRemoteFilename asks the server for the real filename via a HEAD
// request's Content-Disposition header. Used for hosts (civitai, google
// drive) whose URL paths carry no usable filename.
func (s *HTTPStrategy) ResolveRemoteFilename(ctx context.Context, rawurl string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawurl, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if token := s.authToken(rawurl); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	disposition := resp.Header.Get("Content-Disposition")
	if disposition == "" {
		return "", fmt.Errorf("no content-disposition header")
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", err
	}
	name := params["filename"]
	if name == "" {
		return "", fmt.Errorf("content-disposition carries no filename")
	}
	return CleanFilename(name), nil
}
