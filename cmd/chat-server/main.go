// Command chat-server runs the development chat hub over WebSocket and,
// optionally, line-delimited TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/chatview/internal/config"
	"github.com/omochice/chatview/internal/server"
	"github.com/omochice/chatview/internal/transport/tcp"
	"github.com/omochice/chatview/internal/transport/ws"
	"github.com/omochice/chatview/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chat-server",
		Short: "Run the development chat server",
		Long: `Accepts WebSocket connections on ` + ws.DefaultPath + `, tracks registered
usernames and relays every message to all connected clients. With
--tcp-addr the same hub also accepts raw TCP clients sending one JSON
envelope per line.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			log, level, err := logger.NewWithLevel(logger.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			if configFile != "" {
				err := config.Watch(configFile, cmd.Flags(), func(cfg config.Config, err error) {
					if err != nil {
						log.Warn("Failed to reload config", zap.Error(err))
						return
					}
					level.SetLevel(logger.ParseLevel(cfg.LogLevel))
					log.Info("Config reloaded", zap.String("log_level", level.String()))
				})
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (json, yaml or toml)")
	cmd.Flags().String("listen-addr", config.DefaultListenAddr, "address to listen on")
	cmd.Flags().String("tcp-addr", "", "optional address for line-delimited TCP clients")
	cmd.Flags().Int("queue-size", config.DefaultQueueSize, "per-client outgoing queue capacity")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or console)")
	cmd.Flags().String("log-file", "", "additional log output path")

	return cmd
}

// listener is a transport server sharing the hub.
type listener interface {
	Start() error
	Stop()
}

// serve runs the servers until ctx is done or a listener fails; either
// way every listener is stopped before it returns.
func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	hub := server.NewHub(log)
	servers := []listener{ws.New(cfg.ListenAddr, hub, cfg.QueueSize, log)}
	if cfg.TCPAddr != "" {
		servers = append(servers, tcp.New(cfg.TCPAddr, hub, cfg.QueueSize, log))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.Start(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down", zap.Error(context.Cause(gctx)))
		for _, srv := range servers {
			srv.Stop()
		}
		return nil
	})

	err := g.Wait()
	log.Info("Server stopped")
	return err
}
