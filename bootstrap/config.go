package bootstrap

import (
	"github.com/kbukum/pubqueue/config"
)

// Config is the constraint for application configuration types. A struct
// embedding config.ServiceConfig gets GetServiceConfig by promotion and
// usually overrides ApplyDefaults and Validate.
//
//	type BenchConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Queue pubqueue.Config `yaml:"queue" mapstructure:"queue"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
