package registry

import "time"

// Record is one finished probe handed to a Registry.
type Record struct {
	Name        string
	Start       time.Time
	Total       time.Duration
	Checkpoints []Checkpoint
}

// Checkpoint is the time spent between the previous checkpoint (or probe start) and this one.
type Checkpoint struct {
	Name    string
	Elapsed time.Duration
}

// Committable reports whether the record carries anything worth folding.
func (r Record) Committable() bool {
	return r.Total > 0 && len(r.Checkpoints) > 0
}
