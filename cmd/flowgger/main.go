package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/internal/version"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/pipeline"
)

const defaultConfigPath = "flowgger.toml"

// exit codes per §6: 0 clean shutdown, 1 configuration/invariant error,
// 2 runtime error surfaced from the pipeline.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitPipelineError = 2
)

func main() {
	confPath := flag.String("config", defaultConfigPath, "path to the flowgger TOML configuration")
	ver := flag.Bool("version", false, "print version information and exit")
	flag.Parse()
	if flag.NArg() > 0 {
		*confPath = flag.Arg(0)
	}

	if *ver {
		version.PrintVersion(os.Stdout)
		os.Exit(exitOK)
	}

	lg := log.NewStderrLogger()

	cfg, err := config.Load(*confPath, func(format string, args ...interface{}) {
		lg.Warnf(format, args...)
	})
	if err != nil {
		lg.FatalfCode(exitConfigError, "failed to load configuration: %v", err)
		return
	}

	if cfg.LogFile != "" {
		fh, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			lg.FatalfCode(exitConfigError, "failed to open log file %s: %v", cfg.LogFile, err)
			return
		}
		if err := lg.AddWriter(fh); err != nil {
			lg.FatalfCode(exitConfigError, "failed to attach log file: %v", err)
			return
		}
	}

	level := cfg.LogLevel
	if env := os.Getenv("FLOWGGER_LOG_LEVEL"); env != "" {
		level = env
	}
	if level != "" {
		if err := lg.SetLevelString(level); err != nil {
			lg.FatalfCode(exitConfigError, "invalid log level %q: %v", level, err)
			return
		}
	}

	p, err := pipeline.New(cfg, nil, lg)
	if err != nil {
		lg.FatalfCode(exitConfigError, "failed to build pipeline: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p.Start(ctx)
	lg.Infof("flowgger %s running", version.GetVersion())

	<-ctx.Done()
	lg.Infof("shutdown signal received, draining pipeline")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := p.Shutdown(shutdownCtx); err != nil {
		lg.Errorf("pipeline shutdown error: %v", err)
		fmt.Fprintln(os.Stderr, "flowgger: shutdown did not complete cleanly")
		os.Exit(exitPipelineError)
	}

	lg.Infof("flowgger exiting cleanly")
	os.Exit(exitOK)
}
