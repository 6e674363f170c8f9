package config

// Overrides are global CLI-supplied values applied uniformly to every group.
// A nil field means the operator did not supply that override.
type Overrides struct {
	// Timeout in milliseconds, written to every group's http.timeout
	Timeout *int

	// Concurrency sets connections and derives threads for every group
	Concurrency *int
}

// IsZero reports whether no override was supplied.
func (o Overrides) IsZero() bool {
	return o.Timeout == nil && o.Concurrency == nil
}

// ThreadsFor returns the thread count derived from a concurrency value:
// min(MaxThreads, ceil(concurrency/10)).
func ThreadsFor(concurrency int) int {
	threads := (concurrency + 9) / 10
	if threads > MaxThreads {
		threads = MaxThreads
	}
	return threads
}

// Apply mutates cfg in place. It never touches tests, names, execution mode
// or any field the overrides do not name. Values are assumed to have been
// validated upstream (positive integers).
func (o Overrides) Apply(cfg *BenchmarkConfig) {
	if cfg == nil {
		return
	}

	for i := range cfg.Groups {
		group := &cfg.Groups[i]

		if o.Timeout != nil {
			group.HTTP.Timeout = *o.Timeout
		}

		if o.Concurrency != nil {
			group.Connections = *o.Concurrency
			group.Threads = ThreadsFor(*o.Concurrency)
		}
	}
}
