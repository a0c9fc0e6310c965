package monitor

import "time"

// Defaults applied by Options.withDefaults.
const (
	DefaultLogCacheSize      = 200
	DefaultLookupTimeout     = 2 * time.Minute
	DefaultPollInterval      = time.Second
	DefaultLeakCheckInterval = time.Minute
	DefaultLeakRetention     = 10 * time.Minute
)

// Options configures the monitor engine. The zero value is usable: every
// unset field falls back to its default.
type Options struct {
	// LogCacheSize is the number of trailing driver log lines cached per
	// application.
	LogCacheSize int

	// LookupTimeout bounds how long identity resolution polls for the
	// driver pod before declaring the application leaked.
	LookupTimeout time.Duration

	// PollInterval is the sleep between lifecycle polls, and between
	// identity resolution attempts.
	PollInterval time.Duration

	// LeakCheckInterval is the period of the leak sweeper.
	LeakCheckInterval time.Duration

	// LeakRetention is how long an unresolved tag is retained before the
	// sweeper assumes the application never launched.
	LeakRetention time.Duration

	// HistoryServerURL is the base URL of the Spark history server. When
	// set, a gracefully finished application's tracking URL is rewritten to
	// point at its persistent history page.
	HistoryServerURL string
}

func (o Options) withDefaults() Options {
	if o.LogCacheSize <= 0 {
		o.LogCacheSize = DefaultLogCacheSize
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = DefaultLookupTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.LeakCheckInterval <= 0 {
		o.LeakCheckInterval = DefaultLeakCheckInterval
	}
	if o.LeakRetention <= 0 {
		o.LeakRetention = DefaultLeakRetention
	}
	return o
}
