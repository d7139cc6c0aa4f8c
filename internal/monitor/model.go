package monitor

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/server"
	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
)

// spinnerInterval is the frame rate of the connecting animation.
const spinnerInterval = 120 * time.Millisecond

// Model is the Bubble Tea model for the watch view.
type Model struct {
	names      []string
	order      []string // command-line order, used by SortByDefault
	history    map[string]*server.HistoryResponse
	status     map[string]Status
	errors     map[string]string
	selected   int
	collector  *Collector
	width      int
	height     int
	lastUpdate time.Time
	interval   time.Duration
	quitting   bool
	sortOrder  SortOrder
	viewMode   ViewMode
	showHelp   bool

	spinnerFrame int

	detailViewport viewport.Model
	viewportReady  bool

	now func() time.Time
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// spinnerTickMsg advances the connecting animation.
type spinnerTickMsg time.Time

// resultMsg carries the outcome of one fetch.
type resultMsg Result

// NewModel creates a model that refreshes every interval.
func NewModel(collector *Collector, interval time.Duration) Model {
	names := collector.Names()
	status := make(map[string]Status, len(names))
	for _, n := range names {
		status[n] = StatusConnecting
	}

	return Model{
		names:     names,
		order:     collector.Names(),
		history:   make(map[string]*server.HistoryResponse),
		status:    status,
		errors:    make(map[string]string),
		collector: collector,
		interval:  interval,
		now:       time.Now,
	}
}

// Init starts the tick timer and triggers an initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.collectCmd(), m.spinnerTickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail && m.viewportReady {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Header and footer take three lines.
		height := max(1, m.height-3)
		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, height)
			m.detailViewport.YPosition = 2
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = height
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.collectCmd())

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(connectingFrames)
		return m, m.spinnerTickCmd()

	case resultMsg:
		m.applyResult(Result(msg))
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// collectCmd fetches every dashboard in parallel; each answer arrives as
// its own resultMsg.
func (m Model) collectCmd() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.names))
	for _, name := range m.order {
		cmds = append(cmds, func() tea.Msg {
			return resultMsg(m.collector.Collect(context.Background(), name))
		})
	}
	return tea.Batch(cmds...)
}

// applyResult records one fetch and re-sorts.
func (m *Model) applyResult(r Result) {
	m.lastUpdate = r.At

	if r.Err != nil {
		m.status[r.Name] = StatusOffline
		m.errors[r.Name] = errorText(r.Err)
	} else {
		m.history[r.Name] = r.History
		delete(m.errors, r.Name)
		if len(r.History.Samples) == 0 {
			m.status[r.Name] = StatusWaiting
		} else {
			m.status[r.Name] = StatusOnline
		}
	}
	m.sortNames()
}

// errorText returns the one-line message of err.
func errorText(err error) string {
	var smErr *errors.Error
	if stderrors.As(err, &smErr) {
		return smErr.Message
	}
	return err.Error()
}

// latest returns the newest sample for name, or nil.
func (m Model) latest(name string) *telemetry.Sample {
	h := m.history[name]
	if h == nil || len(h.Samples) == 0 {
		return nil
	}
	return &h.Samples[len(h.Samples)-1]
}

// OnlineCount returns the number of dashboards that answered last time.
func (m Model) OnlineCount() int {
	count := 0
	for _, s := range m.status {
		if s == StatusOnline || s == StatusWaiting {
			count++
		}
	}
	return count
}

// Selected returns the name of the selected dashboard.
func (m Model) Selected() string {
	if m.selected >= 0 && m.selected < len(m.names) {
		return m.names[m.selected]
	}
	return ""
}

// SecondsSinceUpdate returns how long ago the last answer arrived.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(m.now().Sub(m.lastUpdate).Seconds())
}

// sortNames applies the sort order, keeping the selection on the same
// dashboard.
func (m *Model) sortNames() {
	selected := m.Selected()

	switch m.sortOrder {
	case SortByName:
		sort.Strings(m.names)
	case SortByCPU:
		m.sortByMetric(func(s *telemetry.Sample) float64 { return s.CPU.Percent })
	case SortByRAM:
		m.sortByMetric(func(s *telemetry.Sample) float64 { return s.Memory.Percent })
	default:
		m.sortByDefault()
	}

	for i, name := range m.names {
		if name == selected {
			m.selected = i
			break
		}
	}
}

// sortByMetric sorts descending by metric; dashboards without samples go last.
func (m *Model) sortByMetric(metric func(*telemetry.Sample) float64) {
	sort.SliceStable(m.names, func(i, j int) bool {
		a, b := m.latest(m.names[i]), m.latest(m.names[j])
		switch {
		case a == nil && b == nil:
			return m.names[i] < m.names[j]
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return metric(a) > metric(b)
	})
}

// sortByDefault puts reachable dashboards first, then keeps command-line order.
func (m *Model) sortByDefault() {
	index := make(map[string]int, len(m.order))
	for i, n := range m.order {
		index[n] = i
	}
	sort.SliceStable(m.names, func(i, j int) bool {
		upI := m.status[m.names[i]] == StatusOnline || m.status[m.names[i]] == StatusWaiting
		upJ := m.status[m.names[j]] == StatusOnline || m.status[m.names[j]] == StatusWaiting
		if upI != upJ {
			return upI
		}
		return index[m.names[i]] < index[m.names[j]]
	})
}
