package bridge

import "sync/atomic"

// Stats contains pipeline counters.
type Stats struct {
	Frames        int64 `json:"frames"`
	InvalidFrames int64 `json:"invalid_frames"`
	RateDropped   int64 `json:"rate_dropped"`
	Processed     int64 `json:"processed"`
	Published     int64 `json:"published"`
	PublishErrors int64 `json:"publish_errors"`
	Truncated     int64 `json:"truncated"`
	NoSolution    int64 `json:"no_solution"`
}

type counters struct {
	frames        atomic.Int64
	invalidFrames atomic.Int64
	rateDropped   atomic.Int64
	processed     atomic.Int64
	published     atomic.Int64
	publishErrors atomic.Int64
	truncated     atomic.Int64
	noSolution    atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:        c.frames.Load(),
		InvalidFrames: c.invalidFrames.Load(),
		RateDropped:   c.rateDropped.Load(),
		Processed:     c.processed.Load(),
		Published:     c.published.Load(),
		PublishErrors: c.publishErrors.Load(),
		Truncated:     c.truncated.Load(),
		NoSolution:    c.noSolution.Load(),
	}
}
