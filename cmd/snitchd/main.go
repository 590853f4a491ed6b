package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/app"
	"github.com/nemanjakrstic/snitch/internal/config"
)

// runConfig holds parsed command-line configuration for snitchd.
type runConfig struct {
	ConfigPath  string
	Addr        string
	LogLevel    string
	TLSCertFile string
	TLSKeyFile  string
	SelfSigned  bool
	DryRun      bool
}

func main() {
	rc := runConfig{}
	flag.StringVar(&rc.ConfigPath, "config", os.Getenv(config.ConfigPathEnv), "Path to the YAML config file")
	flag.StringVar(&rc.Addr, "addr", "", "Address to listen on (overrides server.addr)")
	flag.StringVar(&rc.LogLevel, "log-level", "", "Log level (overrides log.level)")
	flag.StringVar(&rc.TLSCertFile, "tls-cert-file", "", "Path to TLS certificate file (optional)")
	flag.StringVar(&rc.TLSKeyFile, "tls-key-file", "", "Path to TLS key file (optional)")
	flag.BoolVar(&rc.SelfSigned, "tls-self-signed", false, "Serve HTTPS with a generated self-signed certificate")
	flag.BoolVar(&rc.DryRun, "dry-run", false, "Log notifications instead of delivering them")
	flag.Parse()

	cfg, err := loadConfig(rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(rc, cfg, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(rc runConfig) (config.Config, error) {
	cfg, err := config.Load(rc.ConfigPath, os.Getenv)
	if err != nil {
		return config.Config{}, err
	}
	if rc.Addr != "" {
		cfg.Server.Addr = rc.Addr
	}
	if rc.LogLevel != "" {
		cfg.Log.Level = rc.LogLevel
	}
	if rc.DryRun {
		cfg.Delivery.Channel = config.ChannelLog
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// run contains the main application logic, separated from main() for testability.
func run(rc runConfig, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting snitchd",
		zap.String("addr", cfg.Server.Addr),
		zap.String("channel", cfg.Delivery.Channel),
		zap.String("gocd", cfg.GoCD.URL),
		zap.Bool("token_required", cfg.Server.SharedSecret != ""),
	)

	a, err := app.New(cfg, logger, app.Options{DryRun: rc.DryRun})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					reloadPolicy(rc, a, logger)
					continue
				}
				logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	handler := NewPipelineHandler(a.Engine, cfg.Server.SharedSecret, app.ProcessTimeout(cfg), logger)
	server := NewServer(ServerConfig{
		Addr:            cfg.Server.Addr,
		TLSCertFile:     rc.TLSCertFile,
		TLSKeyFile:      rc.TLSKeyFile,
		SelfSignedHosts: selfSignedHosts(rc),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler, logger)

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("snitchd stopped")
	return nil
}

// selfSignedHosts lists the SANs for a generated certificate: loopback plus
// the machine's hostname.
func selfSignedHosts(rc runConfig) []string {
	if !rc.SelfSigned {
		return nil
	}
	hosts := []string{"localhost", "127.0.0.1"}
	if h, err := os.Hostname(); err == nil && h != "" && h != "localhost" {
		hosts = append(hosts, h)
	}
	return hosts
}

// reloadPolicy re-reads the configuration and swaps in the new notify policy.
// Other settings require a restart.
func reloadPolicy(rc runConfig, a *app.App, logger *zap.Logger) {
	cfg, err := loadConfig(rc)
	if err != nil {
		logger.Error("Config reload failed, keeping current policy", zap.Error(err))
		return
	}
	a.Policy.Update(cfg.Policy.Options())
}
