package engine

import "time"

// Stats is the ScanStats record (SPEC_FULL.md §3): plain counters
// incremented inline with no synchronization, matching spec §5's
// single-threaded mandate and §9's "no sync/atomic, no goroutines" design
// note for the engine's own bookkeeping.
type Stats struct {
	ProbesIssued           int
	RetriesIssued          int
	OpenCount              int
	ClosedCount            int
	FilteredCount          int
	ResourceExhaustedCount int
	Started                time.Time
	Elapsed                time.Duration
}
