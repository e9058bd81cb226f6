package download

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultWorkers bounds parallel downloads; notebook hosts throttle hard
// past a handful of connections.
const DefaultWorkers = 3

// Batch is the outcome of a queue run.
type Batch struct {
	ID      string
	Results []Result
}

func (b *Batch) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (b *Batch) Failed() int {
	return len(b.Results) - b.Succeeded()
}

// Queue fans jobs out over a bounded worker pool sharing one dispatcher.
type Queue struct {
	Dispatcher *Dispatcher
	Workers    int
}

func NewQueue(d *Dispatcher, workers int) *Queue {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Queue{Dispatcher: d, Workers: workers}
}

// Run processes all jobs and returns per-job results in input order. A
// cancelled context stops new work; in-flight jobs report their context
// error.
func (q *Queue) Run(ctx context.Context, jobs []Job) *Batch {
	batch := &Batch{
		ID:      uuid.New().String(),
		Results: make([]Result, len(jobs)),
	}
	if len(jobs) == 0 {
		return batch
	}

	slog.Info("starting download batch", "batch", batch.ID, "jobs", len(jobs), "workers", q.Workers)

	type indexed struct {
		idx int
		job Job
	}
	feed := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < q.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range feed {
				if ctx.Err() != nil {
					batch.Results[item.idx] = Result{Job: item.job, Err: ctx.Err(), Kind: KindTransient}
					continue
				}
				batch.Results[item.idx] = q.Dispatcher.Run(ctx, item.job)
			}
		}()
	}

	for i, job := range jobs {
		feed <- indexed{idx: i, job: job}
	}
	close(feed)
	wg.Wait()

	slog.Info("download batch finished", "batch", batch.ID, "succeeded", batch.Succeeded(), "failed", batch.Failed())
	return batch
}
