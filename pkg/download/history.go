package download

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxHistoryRecords caps the on-disk log so long-lived notebook sessions
// don't grow it without bound.
const maxHistoryRecords = 1000

// Record is one line of the download log.
type Record struct {
	URL      string    `json:"url"`
	Path     string    `json:"path"`
	Category string    `json:"category"`
	Strategy string    `json:"strategy,omitempty"`
	Error    string    `json:"error,omitempty"`
	When     time.Time `json:"when"`
}

// Stats summarizes the history for the stats command.
type Stats struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	ByCat     map[string]int `json:"by_category"`
}

// History persists download records to downloads.json under the home logs
// directory. Append is safe for concurrent workers.
type History struct {
	path string
	mu   sync.Mutex
}

func NewHistory(homePath string) *History {
	return &History{path: filepath.Join(homePath, "logs", "downloads.json")}
}

func (h *History) load() []Record {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// Append adds a record, trimming the oldest entries past the cap.
func (h *History) Append(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := append(h.load(), rec)
	if len(records) > maxHistoryRecords {
		records = records[len(records)-maxHistoryRecords:]
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path, data, 0644)
}

// Records returns the persisted log, newest last.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// Summarize tallies the persisted log.
func (h *History) Summarize() Stats {
	stats := Stats{ByCat: make(map[string]int)}
	for _, rec := range h.Records() {
		stats.Total++
		if rec.Error == "" {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.ByCat[rec.Category]++
	}
	return stats
}
