package ports

import "time"

// Policy bundles the tunable constants of one acquisition run. Zero values
// are filled in by the config loader, not here.
type Policy struct {
	// MinPacketsToRead is the threshold below which an iteration skips the
	// drain and idles instead. Raise it when buffer overflows recur.
	MinPacketsToRead uint32 `yaml:"min_packets_to_read"`

	// IdleSleep is the pause between polls while below the threshold.
	IdleSleep time.Duration `yaml:"idle_sleep"`

	// ReadIterations bounds the streaming loop.
	ReadIterations int `yaml:"read_iterations"`

	// MaxDuration optionally bounds the streaming loop by wall clock.
	// Zero disables the time budget.
	MaxDuration time.Duration `yaml:"max_duration"`

	// WarmupDelay is slept after configuration, before the purge, so the
	// purge covers the command-induced transients.
	WarmupDelay time.Duration `yaml:"warmup_delay"`

	// SettleDuration is how long the analog compensation loop is given to
	// converge. The device exposes no completion signal.
	SettleDuration time.Duration `yaml:"settle_duration"`

	// DisconnectRetries and DisconnectBackoff bound the teardown loop.
	DisconnectRetries int           `yaml:"disconnect_retries"`
	DisconnectBackoff time.Duration `yaml:"disconnect_backoff"`
}
