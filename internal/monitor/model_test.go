package monitor

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/server"
	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestModel(names ...string) Model {
	dashboards := make([]Dashboard, len(names))
	for i, n := range names {
		dashboards[i] = Dashboard{Name: n, URL: "http://" + n + ":8080"}
	}
	m := NewModel(NewCollector(dashboards, 10, time.Second), time.Second)
	m.now = func() time.Time { return testNow }
	return m
}

func history(hostname string, cpu, ram float64) *server.HistoryResponse {
	return &server.HistoryResponse{
		Interval: "30s",
		Samples: []telemetry.Sample{{
			Timestamp: testNow,
			CPU:       telemetry.CPUStats{Percent: cpu, Cores: 2, LoadAvg: [3]float64{1, 0.5, 0.25}},
			Memory:    telemetry.MemoryStats{Percent: ram, Total: 4 << 30, Available: 1 << 30},
			Disk:      &telemetry.DiskStats{Path: "/", Percent: 50, Total: 100 << 30, Used: 50 << 30, Free: 50 << 30},
			Network: telemetry.NetworkStats{
				DefaultNIC: "eth0",
				Interfaces: []telemetry.InterfaceStats{
					{Name: "eth0", RecvBps: 2048, SentBps: 1024},
					{Name: "docker0", Virtual: true},
				},
			},
			System: telemetry.SystemStats{Hostname: hostname, UptimeSeconds: 90},
			Connections: &telemetry.ConnectionStats{
				Total:      telemetry.ConnCount{TCP: 7, UDP: 2},
				Interfaces: map[string]telemetry.ConnCount{"eth0": {TCP: 5}, "other": {TCP: 2, UDP: 2}},
			},
		}},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := newTestModel("a", "b")

	assert.Equal(t, []string{"a", "b"}, m.names)
	assert.Equal(t, StatusConnecting, m.status["a"])
	assert.Equal(t, "a", m.Selected())
	assert.Zero(t, m.OnlineCount())
	assert.Zero(t, m.SecondsSinceUpdate())
	assert.NotNil(t, m.Init())
}

func TestModel_ApplyResults(t *testing.T) {
	m := newTestModel("a", "b", "c")

	m, _ = update(t, m, resultMsg{Name: "a", Err: errors.New(errors.ErrServer, "Failed to reach the dashboard", "hint"), At: testNow})
	m, _ = update(t, m, resultMsg{Name: "b", History: history("web-b", 10, 20), At: testNow})
	m, _ = update(t, m, resultMsg{Name: "c", History: &server.HistoryResponse{Interval: "30s"}, At: testNow.Add(-3 * time.Second)})

	assert.Equal(t, StatusOffline, m.status["a"])
	assert.Equal(t, "Failed to reach the dashboard", m.errors["a"])
	assert.Equal(t, StatusOnline, m.status["b"])
	assert.Equal(t, StatusWaiting, m.status["c"])
	assert.Equal(t, 2, m.OnlineCount())
	assert.Equal(t, 3, m.SecondsSinceUpdate())

	assert.Equal(t, []string{"b", "c", "a"}, m.names, "reachable dashboards sort first")
	assert.Equal(t, "a", m.Selected(), "selection follows the dashboard")

	m, _ = update(t, m, resultMsg{Name: "a", History: history("web-a", 5, 5), At: testNow})
	assert.Equal(t, StatusOnline, m.status["a"])
	assert.Empty(t, m.errors["a"])
	assert.Equal(t, []string{"a", "b", "c"}, m.names)
}

func TestModel_SortOrders(t *testing.T) {
	m := newTestModel("low", "high", "none")
	m, _ = update(t, m, resultMsg{Name: "low", History: history("l", 10, 90), At: testNow})
	m, _ = update(t, m, resultMsg{Name: "high", History: history("h", 80, 30), At: testNow})

	m, _ = update(t, m, key("s"))
	assert.Equal(t, SortByName, m.sortOrder)
	assert.Equal(t, []string{"high", "low", "none"}, m.names)

	m, _ = update(t, m, key("s"))
	assert.Equal(t, SortByCPU, m.sortOrder)
	assert.Equal(t, []string{"high", "low", "none"}, m.names)

	m, _ = update(t, m, key("s"))
	assert.Equal(t, SortByRAM, m.sortOrder)
	assert.Equal(t, []string{"low", "high", "none"}, m.names)

	m, _ = update(t, m, key("s"))
	assert.Equal(t, SortByDefault, m.sortOrder)
	assert.Equal(t, []string{"low", "high", "none"}, m.names)
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel("a", "b", "c")

	m, _ = update(t, m, key("up"))
	assert.Equal(t, 0, m.selected, "stays at the top")
	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("j"))
	assert.Equal(t, 2, m.selected)
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 2, m.selected, "stays at the bottom")
	m, _ = update(t, m, key("k"))
	assert.Equal(t, 1, m.selected)
	m, _ = update(t, m, key("home"))
	assert.Equal(t, 0, m.selected)
	m, _ = update(t, m, key("end"))
	assert.Equal(t, "c", m.Selected())
}

func TestModel_DetailView(t *testing.T) {
	m := newTestModel("a", "b")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})
	m, _ = update(t, m, resultMsg{Name: "a", History: history("web-a", 42, 50), At: testNow})

	m, _ = update(t, m, key("enter"))
	assert.Equal(t, ViewDetail, m.viewMode)

	view := m.View()
	for _, want := range []string{"System", "web-a", "1m30s", "load", "Memory", "Disk /", "Network", "eth0 *", "docker0 (v)", "rx 2.0 KiB/s", "Connections", "tcp 7  udp 2", "tcp 2  udp 2"} {
		assert.Contains(t, view, want)
	}
	assert.Contains(t, view, "esc back")

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 0, m.selected, "arrow keys scroll the detail pane")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ViewList, m.viewMode)
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel("a")

	m, _ = update(t, m, key("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, key("esc"))
	assert.False(t, m.showHelp)
}

func TestModel_Quit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m := newTestModel("a")
		m, cmd := update(t, m, key(k))
		assert.True(t, m.quitting)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
		assert.Empty(t, m.View())
	}
}

func TestModel_TickSchedulesFetch(t *testing.T) {
	m := newTestModel("a")
	_, cmd := update(t, m, tickMsg(testNow))
	assert.NotNil(t, cmd)

	_, cmd = update(t, m, key("r"))
	assert.NotNil(t, cmd)
}

func TestModel_SpinnerAdvances(t *testing.T) {
	m := newTestModel("a")
	m, cmd := update(t, m, spinnerTickMsg(testNow))
	assert.Equal(t, 1, m.spinnerFrame)
	assert.NotNil(t, cmd)
}

func TestView_Cards(t *testing.T) {
	m := newTestModel("up", "down", "new")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	m, _ = update(t, m, resultMsg{Name: "up", History: history("web-up", 42, 50), At: testNow})
	m, _ = update(t, m, resultMsg{Name: "down", Err: errors.New(errors.ErrServer, "Dashboard rejected the credentials", ""), At: testNow})

	view := m.View()
	assert.Contains(t, view, "servermon watch")
	assert.Contains(t, view, "3 dashboards | 1 online")
	assert.Contains(t, view, "web-up")
	assert.Contains(t, view, "42%")
	assert.Contains(t, view, "eth0 rx 2.0 KiB/s tx 1.0 KiB/s")
	assert.Contains(t, view, "● offline")
	assert.Contains(t, view, "Dashboard rejected the credentials")
	assert.Contains(t, view, "connecting")
	assert.Contains(t, view, "q quit")
}

func TestView_NoDashboards(t *testing.T) {
	m := newTestModel()
	assert.Contains(t, m.View(), "No dashboards to watch")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "…", truncate("abc", 1))
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestStatusAndSortStrings(t *testing.T) {
	assert.Equal(t, "online", StatusOnline.String())
	assert.Equal(t, "waiting", StatusWaiting.String())
	assert.Equal(t, "unknown", Status(99).String())
	assert.Equal(t, "default", SortByDefault.String())
	assert.Equal(t, SortByDefault, SortByRAM.Next())
	assert.True(t, strings.Contains(SortByCPU.String(), "CPU"))
}
