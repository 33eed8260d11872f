package main

import (
	"time"

	"github.com/kbukum/pubqueue/config"
	"github.com/kbukum/pubqueue/observability"
	"github.com/kbukum/pubqueue/pubqueue"
	"github.com/kbukum/pubqueue/validation"
)

const serviceName = "pubqueue-bench"

// Producer modes.
const (
	ModeBlocking = "blocking"
	ModeTry      = "try"
)

// Config is the bench tool configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Queue         pubqueue.Config      `yaml:"queue" mapstructure:"queue"`
	Bench         BenchConfig          `yaml:"bench" mapstructure:"bench"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// BenchConfig shapes the workload.
type BenchConfig struct {
	// RunID tags logs, spans and metrics. Generated when empty.
	RunID string `yaml:"run_id" mapstructure:"run_id"`
	// Producers is the number of producer goroutines.
	Producers int `yaml:"producers" mapstructure:"producers" validate:"gt=0,lte=1024"`
	// Items is the number of items each producer pushes.
	Items int `yaml:"items" mapstructure:"items" validate:"gt=0"`
	// Mode selects Push (blocking) or a TryPush retry loop (try).
	Mode string `yaml:"mode" mapstructure:"mode" validate:"oneof=blocking try"`
	// Rate caps pushes per second across all producers. Zero is unlimited.
	Rate  float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	// RetryBackoff and RetryMaxBackoff pace TryPush retries in try mode.
	RetryBackoff    time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	RetryMaxBackoff time.Duration `yaml:"retry_max_backoff" mapstructure:"retry_max_backoff" validate:"gte=0"`
	// Subscribers is the number of consumers, each seeing every item.
	Subscribers int `yaml:"subscribers" mapstructure:"subscribers" validate:"gt=0,lte=64"`
	// Prefetch is the demand each consumer keeps outstanding.
	Prefetch int `yaml:"prefetch" mapstructure:"prefetch" validate:"gt=0"`
	// ReadAhead moves each subscription onto its own goroutine holding up to
	// that many items ahead of the consumer. Zero consumes inline.
	ReadAhead int `yaml:"read_ahead" mapstructure:"read_ahead" validate:"gte=0"`
	// BatchSize and FlushInterval group consumed items.
	BatchSize     int           `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	FlushInterval time.Duration `yaml:"flush_interval" mapstructure:"flush_interval" validate:"gte=0"`
	// AbortAfter aborts the queue once that many items were pushed. Zero
	// closes it normally after every producer finished.
	AbortAfter int `yaml:"abort_after" mapstructure:"abort_after" validate:"gte=0"`
	// Timeout bounds the whole run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Queue.ApplyDefaults()

	b := &c.Bench
	if b.Producers == 0 {
		b.Producers = 4
	}
	if b.Items == 0 {
		b.Items = 10_000
	}
	if b.Mode == "" {
		b.Mode = ModeBlocking
	}
	if b.RetryBackoff == 0 {
		b.RetryBackoff = 50 * time.Microsecond
	}
	if b.RetryMaxBackoff == 0 {
		b.RetryMaxBackoff = 5 * time.Millisecond
	}
	if b.Subscribers == 0 {
		b.Subscribers = 1
	}
	if b.Prefetch == 0 {
		b.Prefetch = 64
	}
	if b.BatchSize == 0 {
		b.BatchSize = 100
	}
	if b.FlushInterval == 0 {
		b.FlushInterval = 100 * time.Millisecond
	}
	if b.Timeout == 0 {
		b.Timeout = time.Minute
	}
	c.Observability.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	return validation.New().
		OptionalUUID("bench.run_id", c.Bench.RunID).
		Custom(c.Bench.AbortAfter <= c.Bench.Producers*c.Bench.Items,
			"bench.abort_after", "must not exceed producers * items").
		Validate()
}
