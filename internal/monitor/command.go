package monitor

import (
	"context"
	stderrors "errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Options tune the watch view.
type Options struct {
	Interval time.Duration // refresh period, default 5s
	Timeout  time.Duration // per-dashboard fetch timeout, default DefaultTimeout
	Limit    int           // samples fetched per dashboard, default 60
}

// Run shows the watch view until the user quits or ctx ends.
func Run(ctx context.Context, dashboards []Dashboard, opts Options) error {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Limit <= 0 {
		opts.Limit = 60
	}

	model := NewModel(NewCollector(dashboards, opts.Limit, opts.Timeout), opts.Interval)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
