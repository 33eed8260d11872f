// Command pubqueue-bench pushes items from many producer goroutines through
// a pubqueue and consumes them with demand-driven subscribers, checking
// per-producer ordering and reporting throughput.
//
// Usage:
//
//	pubqueue-bench -config cmd/pubqueue-bench/config.yml
//	BENCH_PRODUCERS=16 BENCH_MODE=try pubqueue-bench
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/pubqueue/bootstrap"
	"github.com/kbukum/pubqueue/config"
	"github.com/kbukum/pubqueue/version"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (searched for when empty)")
	envPath := flag.String("env", "", "path to a .env file (searched for when empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	var opts []config.LoaderOption
	if *configPath != "" {
		opts = append(opts, config.WithConfigFile(*configPath))
	}
	if *envPath != "" {
		opts = append(opts, config.WithEnvFile(*envPath))
	}

	cfg := &Config{}
	if err := config.Load(serviceName, cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		return err
	}
	app.Logger.Info("build", version.Get().Fields())

	tel := newTelemetry(cfg)
	if err := app.RegisterComponent(tel); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		_, err := newRunner(cfg, app.Logger.WithComponent("bench"), tel.Metrics()).Run(ctx)
		return err
	})
}
