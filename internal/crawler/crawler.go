// Package crawler wires the state file, the worker pool, and per-target
// discovery tasks into the top-level run spec.md §4.8 describes: own the
// StateFile and the WorkerPool, read a seed list, enqueue, drain, close.
package crawler

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/consolesink"
	"github.com/n0call/baw/internal/dialogue"
	"github.com/n0call/baw/internal/radio"
	"github.com/n0call/baw/internal/statefile"
	"github.com/n0call/baw/internal/taskqueue"
	"github.com/n0call/baw/internal/workerpool"
)

// Config is everything Run needs beyond the seed stream itself.
type Config struct {
	StatePath     string
	LocalCallsign string
	Threads       int
	Timeout       time.Duration
	Dial          dialogue.Dialer
}

// Crawler owns a StateFile and a WorkerPool for the duration of Run.
type Crawler struct {
	cfg   Config
	sink  *consolesink.Sink
	sf    *statefile.StateFile
	queue *taskqueue.Queue[workerpool.Task]
	pool  *workerpool.Pool
}

// New opens the state file named by cfg.StatePath and starts the worker
// pool. The caller must call Close when Run returns, whether or not Run
// itself succeeded.
func New(cfg Config, sink *consolesink.Sink) (*Crawler, error) {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = dialogue.DefaultResponseTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = radio.Dial
	}

	sf, err := statefile.Open(cfg.StatePath)
	if err != nil {
		return nil, bawerr.Wrap(bawerr.Io, err, "opening state file "+cfg.StatePath)
	}

	queue := taskqueue.New[workerpool.Task]()
	pool := workerpool.New(cfg.Threads, queue, nil, sink.Err())

	return &Crawler{cfg: cfg, sink: sink, sf: sf, queue: queue, pool: pool}, nil
}

// Run reads seed callsigns from seeds (spec.md §4.8 step 3: one callsign
// per line, blank lines including an end-of-file-synthesised one
// skipped, trailing \r\n trimmed), appends each as a root node, and
// enqueues a DiscoveryTask per good callsign. It then shuts the pool down
// gracefully, letting every enqueued task complete, per step 4.
func (c *Crawler) Run(seeds io.Reader) error {
	enqueueErr := c.enqueueSeeds(seeds)
	// Shutdown (not ShutdownNow) regardless of a seed-read failure: every
	// task already enqueued for a good seed still gets to run to
	// completion, per spec.md §4.8 step 4.
	if err := c.pool.Shutdown(); err != nil {
		return err
	}
	return enqueueErr
}

func (c *Crawler) enqueueSeeds(seeds io.Reader) error {
	scanner := bufio.NewScanner(seeds)
	for scanner.Scan() {
		callsign := strings.TrimRight(scanner.Text(), "\r\n")
		if callsign == "" {
			continue
		}

		if _, err := c.sf.AppendRootNode(callsign); err != nil {
			c.sink.Error("rejecting seed " + callsign + ": " + err.Error())
			continue
		}

		c.queue.PushBack(&dialogue.Task{
			StateFile: c.sf,
			Sink:      c.sink,
			Local:     c.cfg.LocalCallsign,
			Target:    callsign,
			Timeout:   c.cfg.Timeout,
			Dial:      c.cfg.Dial,
		})
	}
	if err := scanner.Err(); err != nil {
		return bawerr.Wrap(bawerr.Io, err, "reading seed list")
	}
	return nil
}

// Close flushes and truncates the state file, per spec.md §4.8 step 5.
// Safe to call on the nil Crawler that New returns with an error.
func (c *Crawler) Close() error {
	if c == nil || c.sf == nil {
		return nil
	}
	return c.sf.Close()
}
