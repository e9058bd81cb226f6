package download

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sdcli/sdcli/pkg/webui"
)

// countingStrategy tracks concurrent callers to verify the pool bound.
type countingStrategy struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	fail     map[string]bool
}

func (s *countingStrategy) Name() string    { return "stub" }
func (s *countingStrategy) Available() bool { return true }

func (s *countingStrategy) Fetch(ctx context.Context, url, dest string) error {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	fail := s.fail[url]
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("scripted failure for %s", url)
	}
	return writeValid(dest)
}

func writeValid(dest string) error {
	return os.WriteFile(dest, make([]byte, minValidSize+1), 0644)
}

func TestQueueResultsInInputOrder(t *testing.T) {
	s := &countingStrategy{fail: map[string]bool{"https://example.com/b.bin": true}}
	d, _ := testDispatcher(t, s)
	q := NewQueue(d, 2)

	jobs := []Job{
		{Category: webui.CatModel, URL: "https://example.com/a.bin", Filename: "a.bin"},
		{Category: webui.CatModel, URL: "https://example.com/b.bin", Filename: "b.bin"},
		{Category: webui.CatModel, URL: "https://example.com/c.bin", Filename: "c.bin"},
	}
	batch := q.Run(context.Background(), jobs)

	if len(batch.Results) != 3 {
		t.Fatalf("results = %d", len(batch.Results))
	}
	for i := range jobs {
		if batch.Results[i].Job.URL != jobs[i].URL {
			t.Errorf("result %d is for %q, want %q", i, batch.Results[i].Job.URL, jobs[i].URL)
		}
	}
	if batch.Succeeded() != 2 || batch.Failed() != 1 {
		t.Errorf("succeeded/failed = %d/%d", batch.Succeeded(), batch.Failed())
	}
	if batch.Results[1].Err == nil {
		t.Error("scripted failure not reported")
	}
	if batch.ID == "" {
		t.Error("batch has no id")
	}
}

func TestQueueBoundsConcurrency(t *testing.T) {
	s := &countingStrategy{}
	d, _ := testDispatcher(t, s)
	q := NewQueue(d, 2)

	var jobs []Job
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("f%d.bin", i)
		jobs = append(jobs, Job{Category: webui.CatModel, URL: "https://example.com/" + name, Filename: name})
	}
	batch := q.Run(context.Background(), jobs)

	if batch.Failed() != 0 {
		t.Fatalf("unexpected failures: %d", batch.Failed())
	}
	if s.peak > 2 {
		t.Errorf("peak concurrency %d exceeds pool size 2", s.peak)
	}
}

func TestQueueDefaultsWorkerCount(t *testing.T) {
	d, _ := testDispatcher(t, &countingStrategy{})
	if q := NewQueue(d, 0); q.Workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", q.Workers, DefaultWorkers)
	}
}

func TestQueueHonorsCancelledContext(t *testing.T) {
	s := &countingStrategy{}
	d, _ := testDispatcher(t, s)
	q := NewQueue(d, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Category: webui.CatModel, URL: "https://example.com/a.bin", Filename: "a.bin"}}
	batch := q.Run(ctx, jobs)
	if batch.Results[0].Err == nil {
		t.Error("cancelled context did not surface as an error")
	}
}

func TestQueueEmptyJobList(t *testing.T) {
	d, _ := testDispatcher(t, &countingStrategy{})
	batch := NewQueue(d, 2).Run(context.Background(), nil)
	if len(batch.Results) != 0 {
		t.Errorf("results = %d, want 0", len(batch.Results))
	}
}
