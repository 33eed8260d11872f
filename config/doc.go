// Package config loads configuration for pubqueue tools.
//
// Configuration comes from a YAML file, an optional .env file and the
// process environment, merged by Viper. Environment variables override file
// values; nested keys are matched from underscore-separated names, so
// QUEUE_CAPACITY sets queue.capacity.
//
// # Usage
//
//	var cfg BenchConfig
//	err := config.Load("pubqueue-bench", &cfg, config.WithConfigFile(path))
package config
