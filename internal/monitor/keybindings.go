package monitor

import tea "github.com/charmbracelet/bubbletea"

// Key bindings.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCycleSort   = "s"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes a key press. It reports false for keys it leaves
// to the detail viewport.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.collectCmd()

	case KeyCollapse:
		if m.viewMode == ViewDetail {
			m.viewMode = ViewList
		}
		return true, nil
	}

	// Scrolling keys belong to the viewport in detail view.
	if m.viewMode == ViewDetail {
		return false, nil
	}

	switch key {
	case KeyCycleSort:
		m.sortOrder = m.sortOrder.Next()
		m.sortNames()
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.names)-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if len(m.names) > 0 {
			m.selected = len(m.names) - 1
		}
		return true, nil

	case KeyExpand:
		if len(m.names) > 0 {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
			m.detailViewport.GotoTop()
		}
		return true, nil
	}

	return false, nil
}
