package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/pubqueue/logger"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for a service.
// Returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile(serviceName)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile(serviceName)
	}

	return resolved
}

// findConfigFile searches the standard locations for config.yml.
func (cr *Resolver) findConfigFile(serviceName string) string {
	return cr.first(searchPaths(serviceName, "config.yml"))
}

// findEnvFile searches the standard locations for .env.<service>, then .env.
func (cr *Resolver) findEnvFile(serviceName string) string {
	if path := cr.first(searchPaths(serviceName, ".env."+serviceName)); path != "" {
		return path
	}
	return cr.first(searchPaths(serviceName, ".env"))
}

func (cr *Resolver) first(paths []string) string {
	for _, path := range paths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// searchPaths lists where fileName may live for a service, most specific
// first: cmd/<service>, cmd/<short name>, config and the working directory,
// each also looked up one and two levels above. The short name is the part
// after the last dash, so "pubqueue-bench" also matches cmd/bench.
func searchPaths(serviceName, fileName string) []string {
	dirs := []string{"cmd/" + serviceName}
	if idx := strings.LastIndex(serviceName, "-"); idx != -1 {
		dirs = append(dirs, "cmd/"+serviceName[idx+1:])
	}
	dirs = append(dirs, "config", "")

	var paths []string
	for _, dir := range dirs {
		for _, up := range []string{".", "..", "../.."} {
			if dir == "" {
				paths = append(paths, up+"/"+fileName)
			} else {
				paths = append(paths, up+"/"+dir+"/"+fileName)
			}
		}
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	EnvPrefix  string // Prefix for environment variable names (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix makes environment overrides use PREFIX_KEY names, such as
// PUBQUEUE_QUEUE_CAPACITY for queue.capacity.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// LoadConfig loads configuration for a service into the provided cfg struct.
// It searches for config.yml and .env files in standard locations, lets
// environment variables override every key cfg declares, and unmarshals the
// result into cfg. A key such as queue.batch_size is read from
// QUEUE_BATCH_SIZE.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	return loadFromResolvedFiles(serviceName, cfg, files, lc)
}

// Validatable is a config that can fill defaults and check itself. Structs
// embedding ServiceConfig satisfy it through promotion.
type Validatable interface {
	ApplyDefaults()
	Validate() error
}

// Load is LoadConfig followed by ApplyDefaults and Validate.
func Load(serviceName string, cfg Validatable, opts ...LoaderOption) error {
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config for service %s: %w", serviceName, err)
	}
	return nil
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(serviceName string, cfg interface{}, files ResolvedFiles, lc LoaderConfig) error {
	fs := lc.FileSystem
	v := viper.New()

	// YAML is the base layer.
	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to load config file", logger.Fields("file", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}

	// .env only fills the process environment; the real environment wins.
	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	for _, key := range configKeys(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(key, envName(lc.EnvPrefix, key)); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// envName maps queue.batch_size to QUEUE_BATCH_SIZE, or PREFIX_QUEUE_BATCH_SIZE.
func envName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix != "" {
		name = strings.ToUpper(prefix) + "_" + name
	}
	return name
}

var durationType = reflect.TypeOf(time.Duration(0))

// configKeys lists the dotted mapstructure keys of every leaf field of t.
// Squashed embedded structs contribute their fields without a prefix.
func configKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != durationType {
			if strings.Contains(opts, "squash") {
				keys = append(keys, configKeys(ft, prefix)...)
				continue
			}
			keys = append(keys, configKeys(ft, joinKey(prefix, keyName(name, f.Name)))...)
			continue
		}
		keys = append(keys, joinKey(prefix, keyName(name, f.Name)))
	}
	return keys
}

func keyName(tag, field string) string {
	if tag != "" {
		return tag
	}
	return strings.ToLower(field)
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
