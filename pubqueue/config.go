package pubqueue

import (
	"github.com/kbukum/pubqueue/flow"
	"github.com/kbukum/pubqueue/validation"
)

// DefaultCapacity is the buffer size ApplyDefaults picks.
const DefaultCapacity = 64

// Config sizes a queue.
type Config struct {
	// Capacity is the maximum number of items waiting in the shared buffer.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gt=0"`
	// BatchSize caps how many items the consumer takes from the shared
	// buffer per executor turn. Zero selects flow.DefaultBatchSize.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=0"`
}

// ApplyDefaults fills unset fields. New does not call it: a zero capacity
// passed to New is an error.
func (c *Config) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.BatchSize == 0 {
		c.BatchSize = flow.DefaultBatchSize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
