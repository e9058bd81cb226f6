// Package download implements the asset pipeline: selection resolution,
// interchangeable download strategies, the dispatcher that drives them, and
// the bounded worker pool for batches.
package download

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"time"
)

// FailKind tags a failure so callers can tell "skipped because optional"
// from "failed for real" without parsing log text.
type FailKind int

const (
	KindNone FailKind = iota
	// the tool backing the strategy is not installed
	KindUnavailable
	// the strategy ran and failed; the next strategy may still succeed
	KindTransient
	// missing configuration (no WebUI selected, no token for a gated host)
	KindPrecondition
)

func (k FailKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTransient:
		return "transient"
	case KindPrecondition:
		return "precondition"
	default:
		return "none"
	}
}

// ErrToolMissing marks a strategy whose external binary is not on PATH.
var ErrToolMissing = errors.New("download tool not installed")

// Strategy is one interchangeable download backend.
type Strategy interface {
	Name() string
	// Available reports whether the backend can run at all on this host
	Available() bool
	Fetch(ctx context.Context, url string, dest string) error
}

const (
	// wall-clock limit for a single strategy attempt
	fetchTimeout = 1800 * time.Second
	// anything at or below this size is an error page, not a model
	minValidSize = 1024
)

var modelExtensions = []string{".safetensors", ".ckpt", ".pt"}

// VerifyFile is the shared post-download integrity check: the file must exist,
// exceed the minimum size, and model-typed files must not be an HTML error
// page. This is not a checksum guarantee.
func VerifyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Size() <= minValidSize {
		return false
	}

	lower := strings.ToLower(path)
	isModel := false
	for _, ext := range modelExtensions {
		if strings.HasSuffix(lower, ext) {
			isModel = true
			break
		}
	}
	if !isModel {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, 512)
	n, _ := f.Read(header)
	header = bytes.ToLower(header[:n])
	if bytes.Contains(header, []byte("<html")) || bytes.Contains(header, []byte("<body")) {
		return false
	}
	return true
}

// removePartial discards a failed attempt's output before the next strategy
// runs, so a truncated file never passes a later existence check.
func removePartial(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}
