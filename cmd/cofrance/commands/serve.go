package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yegors/co-france/internal/app"
	"github.com/yegors/co-france/internal/config"
	"github.com/yegors/co-france/pkg/logger"
)

type serveOptions struct {
	configPath string
	addr       string
	connect    bool
}

// Serve returns the serve command
func Serve() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the host bridge and tag reconcilers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("connect") {
				cfg.Plugin.ConnectOnStart = opts.connect
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to the TOML config file (defaults apply when empty)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "override server.addr")
	cmd.Flags().BoolVar(&opts.connect, "connect", false, "start the pollers without waiting for a connect call")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return config.Load(path)
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx, nil)
}
