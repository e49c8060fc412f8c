package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type StateMsg struct{ State, Detail string }
type SlotsMsg struct {
	Lines   [2]string
	Current string
}
type SwitchMsg struct {
	From, To string
	Ms       float64
	Err      string
}
type NoticeMsg struct{ Text string }
type RemapMsg struct{ Text string }
type UpdateAvailableMsg struct{ Version string }
type LogMsg struct{ Text string }
type tickMsg time.Time

// tuiSink forwards agent events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) StateLine(state, detail string) { tuiSend(StateMsg{State: state, Detail: detail}) }
func (tuiSink) SlotLines(lines [2]string, current string) {
	tuiSend(SlotsMsg{Lines: lines, Current: current})
}
func (tuiSink) SwitchResult(from, to string, ms float64, errText string) {
	tuiSend(SwitchMsg{From: from, To: to, Ms: ms, Err: errText})
}
func (tuiSink) Notice(text string)             { tuiSend(NoticeMsg{Text: text}) }
func (tuiSink) RemapLine(text string)          { tuiSend(RemapMsg{Text: text}) }
func (tuiSink) UpdateAvailable(version string) { tuiSend(UpdateAvailableMsg{Version: version}) }

type switchRecord struct {
	at       time.Time
	from, to string
	ms       float64
	errText  string
}

type noticeRecord struct {
	at   time.Time
	text string
}

const switchHistory = 10

type tuiModel struct {
	state         string // "permissions-required" | "configuring" | "active"
	detail        string
	slotLines     [2]string
	current       string
	remapLine     string
	updateVersion string
	switches      []switchRecord
	notices       []noticeRecord
	switchCount   int
	latencies     []float64 // successful switches only
	latencyStats  [5]float64
	width, height int
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

var (
	styleActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleConfig  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	stylePerm    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleDetail  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFaint   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHotkey  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleNotice  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleUpdate  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func NewTUIProgram() *tea.Program {
	m := tuiModel{}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			if agent != nil {
				agent.SwitchNow()
			}
		case "r":
			if agent != nil {
				agent.Refresh()
			}
		}

	case tickMsg:
		// Re-render so the relative timestamps stay honest.
		return m, tuiTick()

	case StateMsg:
		m.state = msg.State
		m.detail = msg.Detail

	case SlotsMsg:
		m.slotLines = msg.Lines
		m.current = msg.Current

	case SwitchMsg:
		m.switchCount++
		rec := switchRecord{at: time.Now(), from: msg.From, to: msg.To, ms: msg.Ms, errText: msg.Err}
		m.switches = append(m.switches, rec)
		if len(m.switches) > switchHistory {
			m.switches = m.switches[len(m.switches)-switchHistory:]
		}
		if msg.Err == "" {
			m.latencies = append(m.latencies, msg.Ms)
			m.latencyStats = calcPercentiles(m.latencies)
		}

	case NoticeMsg:
		m.notices = append(m.notices, noticeRecord{at: time.Now(), text: msg.Text})
		if len(m.notices) > 4 {
			m.notices = m.notices[len(m.notices)-4:]
		}

	case LogMsg:
		m.notices = append(m.notices, noticeRecord{at: time.Now(), text: msg.Text})
		if len(m.notices) > 4 {
			m.notices = m.notices[len(m.notices)-4:]
		}

	case RemapMsg:
		m.remapLine = msg.Text

	case UpdateAvailableMsg:
		m.updateVersion = msg.Version
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const statusWidth = 42

	var statusLines []string
	statusLines = append(statusLines, "")

	switch m.state {
	case "active":
		statusLines = append(statusLines, styleActive.Render("● ACTIVE"))
	case "permissions-required":
		statusLines = append(statusLines, stylePerm.Render("■ PERMISSION NEEDED"))
	case "configuring":
		statusLines = append(statusLines, styleConfig.Render("◐ CONFIGURING"))
	default:
		statusLines = append(statusLines, styleDim.Render("○ STARTING"))
	}
	if m.detail != "" {
		statusLines = append(statusLines, styleDetail.Render(m.detail))
	}
	statusLines = append(statusLines, "")

	statusLines = append(statusLines, styleDim.Render("slots"))
	for _, line := range m.slotLines {
		if line == "" {
			continue
		}
		statusLines = append(statusLines, "  "+styleDetail.Render(line))
	}
	if m.current != "" {
		statusLines = append(statusLines, styleCurrent.Render("current: "+m.current))
	}
	if m.remapLine != "" {
		statusLines = append(statusLines, styleDim.Render("remap: "+m.remapLine))
	}

	if table := renderLatencyTable(m.latencyStats, len(m.latencies)); table != "" {
		statusLines = append(statusLines, "")
		for _, line := range strings.Split(table, "\n") {
			statusLines = append(statusLines, styleDim.Render(line))
		}
	}

	statusLines = append(statusLines, "")
	helpLine := styleHotkey.Render("caps lock") + styleFaint.Render(" to switch")
	statusLines = append(statusLines, helpLine)
	statusLines = append(statusLines, styleFaint.Render("s switch now · r refresh · q quit"))
	statusLines = append(statusLines, styleFaint.Render("capslang "+version))
	if m.updateVersion != "" {
		statusLines = append(statusLines, styleUpdate.Render("update available: "+m.updateVersion+" (run: capslang update)"))
	}

	// Right panel: switch history and notices
	logWidth := m.width - statusWidth - 1
	if logWidth < 20 {
		logWidth = 20
	}
	wrapWidth := logWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var logContent strings.Builder
	if len(m.switches) > 0 {
		title := lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Switches (#%d)", m.switchCount))
		logContent.WriteString(title + "\n\n")
		for _, rec := range m.switches {
			line := fmt.Sprintf("%s  %s → %s", rec.at.Format("15:04:05"), orUnknown(rec.from), orUnknown(rec.to))
			if rec.errText != "" {
				logContent.WriteString(styleBad.Render(line+"  "+rec.errText) + "\n")
			} else {
				logContent.WriteString(styleGood.Render(fmt.Sprintf("%s  %.2f ms", line, rec.ms)) + "\n")
			}
		}
	} else {
		logContent.WriteString(styleDim.Render("No switches yet"))
		logContent.WriteString("\n")
	}

	if len(m.notices) > 0 {
		logContent.WriteString("\n")
		for _, n := range m.notices {
			for i, line := range wrapText(n.text, wrapWidth-10) {
				if i == 0 {
					logContent.WriteString(styleNotice.Render(n.at.Format("15:04:05")+"  "+line) + "\n")
				} else {
					logContent.WriteString(styleNotice.Render("          "+line) + "\n")
				}
			}
		}
	}

	logPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(logContent.String())

	statusPadded := make([]string, m.height)
	for i := range statusPadded {
		if i < len(statusLines) {
			statusPadded[i] = statusLines[i]
		}
	}

	statusPanel := lipgloss.NewStyle().
		Width(statusWidth - 1).
		Height(m.height).
		PaddingLeft(2).
		Render(strings.Join(statusPadded, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, statusPanel, logPanel)
}

func orUnknown(id string) string {
	if id == "" {
		return "?"
	}
	return id
}

func calcPercentiles(vals []float64) [5]float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	percentile := func(p float64) float64 {
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx]
	}

	return [5]float64{
		sorted[0],
		percentile(0.50),
		percentile(0.90),
		percentile(0.95),
		sorted[len(sorted)-1],
	}
}

func renderLatencyTable(stats [5]float64, n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(
		"        %5s %5s %5s %5s %5s\n"+
			"ms      %5.2f %5.2f %5.2f %5.2f %5.2f",
		"min", "p50", "p90", "p95", "max",
		stats[0], stats[1], stats[2], stats[3], stats[4],
	)
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...interface{}) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
