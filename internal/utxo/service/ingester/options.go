package ingester

import "time"

const (
	defaultLookAhead      = 2
	defaultPrewarmWorkers = 32
	defaultProcessWorkers = 16
	defaultPollInterval   = 10 * time.Second
	defaultMaxRepairDepth = 8

	stopFileSuffix = ".honored"
)

// Options control one pipeline run.
type Options struct {
	// SafeMode checks every write against existing records and repairs
	// conflicts. Without it the store is assumed to hold nothing past the
	// start height.
	SafeMode bool
	// UpdateSpent marks outputs SPENT as inputs consume them.
	UpdateSpent bool
	// StartHeight overrides the resume height when not negative.
	StartHeight int64
	// EndHeight stops the run after this height when not negative.
	EndHeight int64
	// BlocksBack re-ingests this many blocks below the resume height.
	BlocksBack uint64
	// LookAhead is the number of blocks fetched ahead of the one being processed.
	LookAhead      int
	PrewarmWorkers int
	ProcessWorkers int
	// StopFile ends the run at the next block boundary once the file exists.
	// The file is renamed when the stop is honored.
	StopFile string
	// Follow keeps polling the source after reaching its tip.
	Follow         bool
	PollInterval   time.Duration
	MaxRepairDepth int
}

func DefaultOptions() Options {
	return Options{
		UpdateSpent:    true,
		StartHeight:    -1,
		EndHeight:      -1,
		LookAhead:      defaultLookAhead,
		PrewarmWorkers: defaultPrewarmWorkers,
		ProcessWorkers: defaultProcessWorkers,
		PollInterval:   defaultPollInterval,
		MaxRepairDepth: defaultMaxRepairDepth,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LookAhead <= 0 {
		o.LookAhead = d.LookAhead
	}
	if o.PrewarmWorkers <= 0 {
		o.PrewarmWorkers = d.PrewarmWorkers
	}
	if o.ProcessWorkers <= 0 {
		o.ProcessWorkers = d.ProcessWorkers
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.MaxRepairDepth <= 0 {
		o.MaxRepairDepth = d.MaxRepairDepth
	}
	return o
}
