package requester

import (
	"context"
	"sync"
)

// Probe is a single unit of work for the worker pool.
type Probe struct {
	URL         string // absolute URL to request
	Path        string // relative candidate path, kept for classification
	Base        string // base directory URL the probe was scheduled under
	Depth       int    // recursion depth the probe was scheduled at
	FromContent bool   // true when mined by the content analyzer
}

// Outcome pairs a probe with its response or error.
type Outcome struct {
	Probe Probe
	Resp  *Response
	Err   error
}

// Dispatch fans the probes out across a bounded worker pool and returns a
// channel of outcomes. The channel is closed once every probe has been
// processed or the context is cancelled; cancellation lets in-flight
// requests finish or time out but stops workers from picking up new work.
func (c *Client) Dispatch(ctx context.Context, probes []Probe, workers int) <-chan Outcome {
	if workers <= 0 {
		workers = c.opts.Threads
	}

	probeCh := make(chan Probe, workers*2)
	outCh := make(chan Outcome, workers*2)

	go func() {
		defer close(probeCh)
		for _, p := range probes {
			select {
			case probeCh <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for probe := range probeCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				resp, err := c.Fetch(ctx, probe.URL)
				if ctx.Err() != nil {
					return
				}
				outCh <- Outcome{Probe: probe, Resp: resp, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outCh)
	}()

	return outCh
}
