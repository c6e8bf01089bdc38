package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/sitenav/internal/config"
	"github.com/ensigniasec/sitenav/internal/nav"
	"github.com/ensigniasec/sitenav/internal/storage"
)

// Options configures a preview run.
type Options struct {
	// Root is the site directory pages are resolved against.
	Root string
	// Page is the first page, relative to Root.
	Page    string
	Config  *config.Config
	Storage *storage.Storage
	// EventLog receives navigator events as JSON lines when non-nil.
	EventLog io.Writer
	// LogOutput keeps logging while the alt screen is active; nil discards it.
	LogOutput io.Writer
}

// Run starts the Bubble Tea previewer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := logrus.StandardLogger()

	loop := nav.NewLoop(0)
	s := newSession(cfg, opts.Root, opts.Storage, loop, nav.NewSystemClock(loop), log)
	s.elog = newEventLog(opts.EventLog, log)

	zones := zone.New()
	model := NewModel(s, opts.Page, zones)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	// Silence external logs (WARN/ERRO) during TUI to avoid corrupting the view.
	prevOut := logrus.StandardLogger().Out
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = io.Discard
	}
	logrus.SetOutput(logOut)
	defer logrus.SetOutput(prevOut)
	prevStdout, prevStderr := browser.Stdout, browser.Stderr
	browser.Stdout, browser.Stderr = io.Discard, io.Discard
	defer func() { browser.Stdout, browser.Stderr = prevStdout, prevStderr }()

	_, err := p.Run()
	s.save()
	if s.nav != nil {
		s.nav.Destroy()
	}
	zones.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
