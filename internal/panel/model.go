package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/actuator"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
)

// refreshInterval is how often the terminal re-reads the shared hardware
// state. Twice the control-loop period is enough to never miss a displayed
// code for a full frame.
const refreshInterval = 100 * time.Millisecond

// StatusSource provides the controller snapshot rendered in the status line.
type StatusSource interface {
	Snapshot() controller.Snapshot
}

var (
	displayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8B00")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 2)

	dimDisplayStyle = displayStyle.Copy().
			Foreground(lipgloss.Color("#7A4400"))

	ledOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	ledOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	redOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	blueOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4DA6FF"))

	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#43BF6D"))
	faultStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	simStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
)

type keyMap struct {
	Zones    key.Binding
	Multi    key.Binding
	Pause    key.Binding
	Stop     key.Binding
	Selector key.Binding
	Encoder  key.Binding
	TurnUp   key.Binding
	TurnDown key.Binding
	FailOn   key.Binding
	FailOff  key.Binding
	Diverge  key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Zones, k.Multi, k.Pause, k.Stop, k.Selector, k.Encoder, k.TurnUp, k.TurnDown, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Zones, k.Multi, k.Pause, k.Stop},
		{k.Selector, k.Encoder, k.TurnUp, k.TurnDown},
		{k.FailOn, k.FailOff, k.Diverge, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Zones: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7"),
			key.WithHelp("1-7", "zone"),
		),
		Multi: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "multi"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop switch"),
		),
		Selector: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "group selector"),
		),
		Encoder: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "encoder switch"),
		),
		TurnUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "encoder cw"),
		),
		TurnDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "encoder ccw"),
		),
		FailOn: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sim fail-on"),
		),
		FailOff: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "sim fail-off"),
		),
		Diverge: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "sim divergence"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type refreshMsg time.Time

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Model is the bubbletea model driving a shared Hardware. Key events map to
// panel controls; a periodic tick re-renders the hardware and controller
// state.
type Model struct {
	hw   *Hardware
	src  StatusSource
	sim  *actuator.SimFlags
	keys keyMap
	help help.Model

	width int
}

// NewModel wires the terminal onto the shared hardware. src and sim may be
// nil; the corresponding panes are then omitted.
func NewModel(hw *Hardware, src StatusSource, sim *actuator.SimFlags) Model {
	return Model{
		hw:   hw,
		src:  src,
		sim:  sim,
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return scheduleRefresh()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return m, scheduleRefresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Zones):
			if zone := int(msg.Runes[0] - '0'); zone >= 1 && zone <= buttons.NumZones {
				m.hw.Press(buttons.ZoneIDs[zone-1])
			}
		case key.Matches(msg, m.keys.Multi):
			m.hw.Press(buttons.Multi)
		case key.Matches(msg, m.keys.Pause):
			m.hw.Press(buttons.Pause)
		case key.Matches(msg, m.keys.Stop):
			m.hw.Toggle(buttons.Stop)
		case key.Matches(msg, m.keys.Selector):
			m.hw.SetSelector(nextSelector(m.hw.Selector()))
		case key.Matches(msg, m.keys.Encoder):
			m.hw.Toggle(buttons.EncoderSW)
		case key.Matches(msg, m.keys.TurnUp):
			m.hw.Turn(1)
		case key.Matches(msg, m.keys.TurnDown):
			m.hw.Turn(-1)
		case key.Matches(msg, m.keys.FailOn):
			if m.sim != nil {
				m.sim.FailOn = !m.sim.FailOn
			}
		case key.Matches(msg, m.keys.FailOff):
			if m.sim != nil {
				m.sim.FailOff = !m.sim.FailOff
			}
		case key.Matches(msg, m.keys.Diverge):
			if m.sim != nil {
				m.sim.VerifyOnMismatch = !m.sim.VerifyOnMismatch
			}
		}
		return m, nil
	}
	return m, nil
}

func nextSelector(cur buttons.ID) buttons.ID {
	switch cur {
	case buttons.Group1:
		return buttons.Group2
	case buttons.Group2:
		return buttons.Group3
	default:
		return buttons.Group1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("RIEGO FRONT PANEL"))
	b.WriteString("\n\n")

	b.WriteString(m.renderDisplay())
	b.WriteString("\n\n")
	b.WriteString(m.renderLEDs())
	b.WriteString("\n")
	b.WriteString(m.renderSwitches())
	b.WriteString("\n")

	if m.src != nil {
		b.WriteString("\n")
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}
	if m.sim != nil {
		b.WriteString(m.renderSim())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderDisplay() string {
	text := m.hw.Text()
	if text == "" {
		text = "    "
	}
	style := displayStyle
	if m.hw.Dimmed() {
		style = dimDisplayStyle
	}
	face := style.Render(fmt.Sprintf("%-5s", text))
	if beep := m.hw.LastBeep(); beep != "" {
		return lipgloss.JoinHorizontal(lipgloss.Center, face, "  ", labelStyle.Render("♪ "+beep))
	}
	return face
}

func (m Model) renderLEDs() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render("zones  "))
	for zone := 1; zone <= buttons.NumZones; zone++ {
		b.WriteString(m.lamp(buttons.ZoneLED(zone), ledOnStyle))
		b.WriteString(fmt.Sprintf("%d ", zone))
	}
	b.WriteString("   ")
	b.WriteString(labelStyle.Render("groups "))
	for position := 1; position <= buttons.NumGroups; position++ {
		b.WriteString(m.lamp(buttons.GroupLED(position), ledOnStyle))
		b.WriteString(fmt.Sprintf("%d ", position))
	}
	b.WriteString("   ")
	b.WriteString(m.lamp(buttons.LEDGreen, ledOnStyle))
	b.WriteString(labelStyle.Render("net "))
	b.WriteString(m.lamp(buttons.LEDBlue, blueOnStyle))
	b.WriteString(labelStyle.Render("local "))
	b.WriteString(m.lamp(buttons.LEDRed, redOnStyle))
	b.WriteString(labelStyle.Render("err"))
	return b.String()
}

func (m Model) lamp(id int, on lipgloss.Style) string {
	if m.hw.LED(id) {
		return on.Render("●") + " "
	}
	return ledOffStyle.Render("○") + " "
}

func (m Model) renderSwitches() string {
	parts := []string{
		labelStyle.Render("selector ") + statusStyle.Render(selectorLabel(m.hw.Selector())),
		labelStyle.Render("stop ") + statusStyle.Render(switchLabel(m.hw.Latched(buttons.Stop))),
		labelStyle.Render("encoder-sw ") + statusStyle.Render(switchLabel(m.hw.Latched(buttons.EncoderSW))),
	}
	return strings.Join(parts, "   ")
}

func selectorLabel(id buttons.ID) string {
	switch id {
	case buttons.Group1:
		return "G1"
	case buttons.Group3:
		return "G3"
	}
	return "G2"
}

func switchLabel(closed bool) string {
	if closed {
		return "CLOSED"
	}
	return "open"
}

func (m Model) renderStatus() string {
	snap := m.src.Snapshot()

	line := labelStyle.Render("state ") + statusStyle.Render(snap.State)
	if snap.Fault != "" && snap.FaultCode != "" {
		line += "  " + faultStyle.Render(snap.FaultCode+" "+snap.Fault)
	}
	if snap.Zone > 0 {
		line += "  " + labelStyle.Render("zone ") + statusStyle.Render(fmt.Sprintf("%d %s", snap.Zone, snap.ZoneName))
		line += "  " + labelStyle.Render("left ") + statusStyle.Render(snap.Remaining)
	}
	if snap.SeqTotal > 0 {
		line += "  " + labelStyle.Render("seq ") +
			statusStyle.Render(fmt.Sprintf("%d/%d %s", snap.SeqIndex, snap.SeqTotal, snap.GroupName))
	}
	if snap.Offline {
		line += "  " + simStyle.Render("OFFLINE")
	}
	return line
}

func (m Model) renderSim() string {
	var flags []string
	if m.sim.FailOn {
		flags = append(flags, "fail-on")
	}
	if m.sim.FailOff {
		flags = append(flags, "fail-off")
	}
	if m.sim.VerifyOnMismatch {
		flags = append(flags, "divergence")
	}
	if m.sim.VerifyOffMismatch {
		flags = append(flags, "off-divergence")
	}
	if m.sim.PauseResumeError {
		flags = append(flags, "resume-error")
	}
	if len(flags) == 0 {
		return labelStyle.Render("sim: none")
	}
	return simStyle.Render("sim: " + strings.Join(flags, ", "))
}
