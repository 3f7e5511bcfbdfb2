package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/internal/config"
	"github.com/omochice/chatview/internal/render"
)

// frontend shows session snapshots and turns user input into submits.
type frontend interface {
	// OnChange receives every published snapshot. It runs on the session
	// goroutine and must not block.
	OnChange(chat.ViewModel)
	// Run reads input until the user leaves or ctx is done.
	Run(ctx context.Context) error
}

// wantsTUI reports whether the full-screen UI will run for cfg.
func wantsTUI(cfg config.Config, in io.Reader, out io.Writer) bool {
	return cfg.UI == config.UITUI ||
		(cfg.UI != config.UIPlain && isTerminal(in) && isTerminal(out))
}

func newFrontend(cfg config.Config, in io.Reader, out io.Writer, submit func(string)) frontend {
	if wantsTUI(cfg, in, out) {
		return newTUIFrontend(cfg, in, out, submit)
	}

	fmt.Fprintf(out, "Connected to %s as %s\n", cfg.ServerURL, cfg.Username)
	return &plainFrontend{
		in:     in,
		term:   render.NewTerminal(out),
		submit: submit,
	}
}

// plainFrontend prints lines and sends each stdin line.
type plainFrontend struct {
	in     io.Reader
	term   *render.Terminal
	submit func(string)
}

func (f *plainFrontend) OnChange(vm chat.ViewModel) {
	f.term.Render(vm)
}

func (f *plainFrontend) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(f.in)
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "quit", "exit":
			return nil
		}
		f.submit(line)
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

// tuiFrontend runs the full-screen UI. Snapshots are coalesced so the
// session never waits on the UI loop.
type tuiFrontend struct {
	program *tea.Program
	latest  atomic.Pointer[chat.ViewModel]
	changed chan struct{}
}

func newTUIFrontend(cfg config.Config, in io.Reader, out io.Writer, submit func(string)) *tuiFrontend {
	return &tuiFrontend{
		program: tea.NewProgram(
			render.NewTUI(cfg.Username, submit),
			tea.WithInput(in),
			tea.WithOutput(out),
			tea.WithAltScreen(),
		),
		changed: make(chan struct{}, 1),
	}
}

func (f *tuiFrontend) OnChange(vm chat.ViewModel) {
	f.latest.Store(&vm)
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

func (f *tuiFrontend) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				f.program.Quit()
				return
			case <-f.changed:
				if vm := f.latest.Load(); vm != nil {
					f.program.Send(render.Snapshot(*vm))
				}
			}
		}
	}()

	_, err := f.program.Run()
	return err
}
