// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aviary-gcs/aviary/pkg/skytalk"
	"github.com/aviary-gcs/aviary/pkg/uavobject"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live telemetry dashboard",
	Long: `Full-screen dashboard showing the latest value of every object received
on the link, together with link statistics and an event log.

Keys:
  r        request an object by name (Enter to send, Esc to cancel)
  q        quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// One row of the telemetry table: the latest data for an object instance.
type objectRow struct {
	def      *uavobject.Definition
	instID   uint16
	data     []byte
	received time.Time
	count    uint64
}

type rowKey struct {
	objID  uint32
	instID uint16
}

// Messages
type tuiTickMsg time.Time
type objectUpdateMsg struct {
	def    *uavobject.Definition
	instID uint16
	data   []byte
}
type readErrorMsg struct {
	err error
}
type requestDoneMsg struct {
	name string
	err  error
}

// TUI model
type tuiModel struct {
	connInfo string
	l        *link

	rows          map[rowKey]*objectRow
	eventLog      []eventLogEntry
	maxLogEntries int

	input       textinput.Model
	inputActive bool

	width    int
	height   int
	quitting bool
}

func initialTUIModel(l *link) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "AttitudeState"
	ti.CharLimit = 40
	ti.Width = 24

	return tuiModel{
		connInfo:      l.info,
		l:             l,
		rows:          make(map[rowKey]*objectRow),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

// requestCmd asks the firmware for an object and reports the outcome. The
// transaction layer serializes concurrent requests, so firing this from a
// tea.Cmd goroutine is safe.
func (m tuiModel) requestObjectCmd(arg string) tea.Cmd {
	return func() tea.Msg {
		def, err := m.l.resolveObject(arg)
		if err != nil {
			return requestDoneMsg{name: arg, err: err}
		}
		instID := uint16(0)
		if !def.SingleInstance {
			instID = skytalk.AllInstances
		}
		err = m.l.talk.RequestObject(def.ID, instID, 2*time.Second)
		return requestDoneMsg{name: def.Name, err: err}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputActive {
			switch msg.String() {
			case "enter":
				arg := strings.TrimSpace(m.input.Value())
				m.inputActive = false
				m.input.Blur()
				m.input.SetValue("")
				if arg == "" {
					return m, nil
				}
				m.addLogEntry(fmt.Sprintf("Requesting %s...", arg), false)
				return m, m.requestObjectCmd(arg)
			case "esc":
				m.inputActive = false
				m.input.Blur()
				m.input.SetValue("")
				return m, nil
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.inputActive = true
			return m, m.input.Focus()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tuiTickMsg:
		// Redraw so the age column and stats stay current
		return m, tuiTickCmd()

	case objectUpdateMsg:
		key := rowKey{objID: msg.def.ID, instID: msg.instID}
		row, ok := m.rows[key]
		if !ok {
			row = &objectRow{def: msg.def, instID: msg.instID}
			m.rows[key] = row
		}
		row.data = msg.data
		row.received = time.Now()
		row.count++

	case requestDoneMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Request %s failed: %v", msg.name, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Request %s answered", msg.name), false)
		}

	case readErrorMsg:
		m.addLogEntry(fmt.Sprintf("READ ERROR: %v", msg.err), true)
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	staleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("AVIARY - TELEMETRY"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'r' to request an object, 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Link statistics
	stats := m.l.talk.Stats()
	statsContent := fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("RX:"), valueStyle.Render(fmt.Sprintf("%d objs / %d B", stats.RxObjects, stats.RxBytes)),
		labelStyle.Render("TX:"), valueStyle.Render(fmt.Sprintf("%d objs / %d B", stats.TxObjects, stats.TxBytes)),
		labelStyle.Render("Errors:"), func() string {
			if stats.RxErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", stats.RxErrors))
			}
			return valueStyle.Render("0")
		}(),
	)
	s.WriteString(boxStyle.Render(statsContent))
	s.WriteString("\n\n")

	// Telemetry table, sorted by object name then instance
	s.WriteString(labelStyle.Render("Objects:"))
	s.WriteString("\n")

	keys := make([]rowKey, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := m.rows[keys[i]], m.rows[keys[j]]
		if a.def.Name != b.def.Name {
			return a.def.Name < b.def.Name
		}
		return a.instID < b.instID
	})

	tableContent := strings.Builder{}
	if len(keys) == 0 {
		tableContent.WriteString(headerStyle.Render("  (no objects received yet)"))
	} else {
		now := time.Now()
		for _, k := range keys {
			row := m.rows[k]
			name := row.def.Name
			if !row.def.SingleInstance {
				name = fmt.Sprintf("%s #%d", name, row.instID)
			}
			age := now.Sub(row.received)
			values := row.def.FormatValues(row.data)
			style := valueStyle
			if age > 5*time.Second {
				style = staleStyle
			}
			tableContent.WriteString(fmt.Sprintf("%s %s %s\n",
				labelStyle.Render(fmt.Sprintf("%-24s", name)),
				style.Render(values),
				headerStyle.Render(fmt.Sprintf("(%.1fs ago, n=%d)", age.Seconds(), row.count)),
			))
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(tableContent.String()))
	s.WriteString("\n\n")

	// Request input
	if m.inputActive {
		s.WriteString(labelStyle.Render("Request object: "))
		s.WriteString(m.input.View())
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - len(keys) - 14
	if logHeight < 3 {
		logHeight = 3
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}
	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					infoStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func runTUI(cmd *cobra.Command, args []string) error {
	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	m := initialTUIModel(l)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Decoded updates flow from the reader goroutine into the TUI. The
	// callback runs on the reader goroutine; p.Send is safe from there.
	l.reg.SetUpdateFunc(func(def *uavobject.Definition, instID uint16, data []byte) {
		p.Send(objectUpdateMsg{def: def, instID: instID, data: data})
	})

	readErr := l.startReader()
	go func() {
		if err := <-readErr; err != nil && err != errLinkClosed {
			p.Send(readErrorMsg{err: err})
		}
	}()

	_, err = p.Run()
	return err
}
