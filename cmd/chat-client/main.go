// Command chat-client joins a chat server as one user, shows the roster
// and timeline, and sends what the user types.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/internal/client"
	"github.com/omochice/chatview/internal/config"
	"github.com/omochice/chatview/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// errDisconnected ends the client when the server goes away.
var errDisconnected = errors.New("disconnected from server")

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chat-client",
		Short: "Join a chat room from the terminal",
		Long: `Connects to a chat server over WebSocket (ws://, wss://) or line-delimited
TCP (tcp://host:port), registers the given username and shows the user
list and every message.

On a terminal the client runs a full-screen UI; otherwise each stdin line
is sent as a message and "quit" or "exit" leaves.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateClient(); err != nil {
				return err
			}

			// stderr would draw over the full-screen UI.
			log, level, err := logger.NewWithLevel(logger.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
				Quiet:  wantsTUI(cfg, in, out),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			if configFile != "" {
				if err := watchLogLevel(configFile, cmd, level, log); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, in, out, log)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (json, yaml or toml)")
	cmd.Flags().String("server-url", config.DefaultServerURL, "server URL (ws://, wss:// or tcp://)")
	cmd.Flags().String("username", "", "username for chat")
	cmd.Flags().Int("queue-size", config.DefaultQueueSize, "outbound queue capacity")
	cmd.Flags().String("timestamp-layout", config.DefaultTimestampLayout, "Go time layout for message timestamps")
	cmd.Flags().String("ui", config.DefaultUI, "front end (auto, tui or plain)")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or console)")
	cmd.Flags().String("log-file", "", "additional log output path")

	return cmd
}

// watchLogLevel applies log_level edits in the config file while running.
func watchLogLevel(path string, cmd *cobra.Command, level zap.AtomicLevel, log *zap.Logger) error {
	return config.Watch(path, cmd.Flags(), func(cfg config.Config, err error) {
		if err != nil {
			log.Warn("Failed to reload config", zap.Error(err))
			return
		}
		level.SetLevel(logger.ParseLevel(cfg.LogLevel))
		log.Info("Config reloaded", zap.String("log_level", level.String()))
	})
}

// run connects, registers and feeds frames and user input into the
// session until ctx is done, the user leaves or the server disconnects.
func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, log *zap.Logger) error {
	ch, err := client.Dial(ctx, cfg.ServerURL, client.Options{QueueSize: cfg.QueueSize, Logger: log})
	if err != nil {
		return err
	}
	defer ch.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	events := make(chan chat.Event)
	fe := newFrontend(cfg, in, out, func(text string) {
		for _, ev := range []chat.Event{chat.InputEdited{Text: text}, chat.SubmitRequested{}} {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	})

	sess, err := chat.New(chat.Config{
		Username:        cfg.Username,
		Channel:         ch,
		Logger:          log,
		TimestampLayout: cfg.TimestampLayout,
		OnChange:        fe.OnChange,
	})
	if err != nil {
		return err
	}

	go pumpFrames(ctx, cancel, ch.Frames(), events)
	go func() {
		defer cancel(nil)
		if err := fe.Run(ctx); err != nil {
			log.Error("Front end failed", zap.Error(err))
		}
	}()

	sess.Activate()

	err = sess.Run(ctx, events)
	if cause := context.Cause(ctx); errors.Is(cause, errDisconnected) {
		return cause
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pumpFrames(ctx context.Context, cancel context.CancelCauseFunc, frames <-chan string, events chan<- chat.Event) {
	for frame := range frames {
		select {
		case events <- chat.FrameReceived{Frame: frame}:
		case <-ctx.Done():
			return
		}
	}
	cancel(errDisconnected)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
