package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dd0wney/stratnet/pkg/api"
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/pubsub"
	"github.com/dd0wney/stratnet/pkg/traversal"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#45B7D1")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45B7D1")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF6B6B")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#96CEB4")).
			Padding(1, 2).
			MarginRight(2)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	nodesView
	controlsView
	pathView
	viewCount
)

var viewNames = []string{"Dashboard", "Nodes", "Controls", "Path"}

const (
	refreshInterval = 200 * time.Millisecond
	callTimeout     = 2 * time.Second
	maxBarWidth     = 30
)

type keyMap struct {
	Tab       key.Binding
	ShiftTab  key.Binding
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Toggle    key.Binding
	Increase  key.Binding
	Decrease  key.Binding
	Reset     key.Binding
	Traversal key.Binding
	Clear     key.Binding
	Export    key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	ShiftTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate node")),
	Toggle:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "toggle link type")),
	Increase:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "longer links")),
	Decrease:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "shorter links")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset distances")),
	Traversal: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "traversal mode")),
	Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear path")),
	Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export path")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Traversal, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Up, k.Down},
		{k.Enter, k.Toggle, k.Increase, k.Decrease, k.Reset},
		{k.Traversal, k.Clear, k.Export, k.Quit},
	}
}

type tickMsg time.Time

// refreshMsg carries a consistent read of the engine state.
type refreshMsg struct {
	stats    engine.Stats
	controls engine.Controls
	trav     engine.TraversalState
	nodes    []catalog.Node
	err      error
}

// actionMsg reports the outcome of a control call.
type actionMsg struct {
	text string
	err  error
}

type eventMsg pubsub.Event

type model struct {
	ctl       engine.Control
	sub       *pubsub.Subscription
	exportDir string
	now       func() time.Time

	currentView view
	nodeTable   table.Model
	help        help.Model
	keys        keyMap
	linkCursor  int
	width       int
	height      int
	message     string
	messageErr  bool

	stats    engine.Stats
	controls engine.Controls
	trav     engine.TraversalState
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func initialModel(ctl engine.Control, sub *pubsub.Subscription, exportDir string) model {
	columns := []table.Column{
		{Title: "ID", Width: 16},
		{Title: "Name", Width: 32},
		{Title: "Tier", Width: 14},
		{Title: "Pinned", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#45B7D1")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF6B6B")).
		Bold(false)
	t.SetStyles(s)

	return model{
		ctl:         ctl,
		sub:         sub,
		exportDir:   exportDir,
		now:         time.Now,
		currentView: dashboardView,
		nodeTable:   t,
		help:        help.New(),
		keys:        keys,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refresh(), tickCmd()}
	if m.sub != nil {
		cmds = append(cmds, waitForEvent(m.sub))
	}
	return tea.Batch(cmds...)
}

// refresh reads stats, controls, traversal state and nodes.
func (m model) refresh() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		var msg refreshMsg
		if msg.stats, msg.err = ctl.Stats(ctx); msg.err != nil {
			return msg
		}
		if msg.controls, msg.err = ctl.Controls(ctx); msg.err != nil {
			return msg
		}
		if msg.trav, msg.err = ctl.Traversal(ctx); msg.err != nil {
			return msg
		}
		msg.nodes, msg.err = ctl.Nodes(ctx, "")
		return msg
	}
}

// do runs fn against the controller and reports text on success.
func (m model) do(text string, fn func(ctx context.Context, ctl engine.Control) error) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return actionMsg{text: text, err: fn(ctx, ctl)}
	}
}

func waitForEvent(sub *pubsub.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Channel()
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tickCmd())

	case refreshMsg:
		if msg.err != nil {
			m.setMessage(msg.err.Error(), true)
			return m, nil
		}
		m.stats, m.controls, m.trav = msg.stats, msg.controls, msg.trav
		m.nodeTable.SetRows(nodeRows(msg.nodes))
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.setMessage(msg.err.Error(), true)
		} else {
			m.setMessage(msg.text, false)
		}
		return m, m.refresh()

	case eventMsg:
		m.describeEvent(pubsub.Event(msg))
		return m, waitForEvent(m.sub)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.currentView = (m.currentView + 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.currentView = (m.currentView + viewCount - 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.Traversal):
		on := !m.trav.Active
		return m, m.do(fmt.Sprintf("Traversal mode %s", onOff(on)), func(ctx context.Context, ctl engine.Control) error {
			return ctl.SetTraversalMode(ctx, on)
		})
	case key.Matches(msg, m.keys.Clear):
		return m, m.do("Path cleared", func(ctx context.Context, ctl engine.Control) error {
			return ctl.ClearPath(ctx)
		})
	case key.Matches(msg, m.keys.Export):
		return m, m.exportPath()
	}

	switch m.currentView {
	case nodesView:
		if key.Matches(msg, m.keys.Enter) {
			row := m.nodeTable.SelectedRow()
			if row == nil {
				return m, nil
			}
			id := row[0]
			return m, m.do("Activated "+id, func(ctx context.Context, ctl engine.Control) error {
				return ctl.Activate(ctx, id)
			})
		}
		var cmd tea.Cmd
		m.nodeTable, cmd = m.nodeTable.Update(msg)
		return m, cmd

	case controlsView:
		return m.handleControlsKey(msg)
	}
	return m, nil
}

func (m model) handleControlsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lt := catalog.LinkTypes[m.linkCursor]
	switch {
	case key.Matches(msg, m.keys.Up):
		m.linkCursor = (m.linkCursor + len(catalog.LinkTypes) - 1) % len(catalog.LinkTypes)
	case key.Matches(msg, m.keys.Down):
		m.linkCursor = (m.linkCursor + 1) % len(catalog.LinkTypes)
	case key.Matches(msg, m.keys.Toggle):
		if lt == catalog.LinkStructure {
			m.setMessage("Structure links are always visible", true)
			return m, nil
		}
		visible := toggleType(m.controls.VisibleLinkTypes, lt)
		return m, m.do(fmt.Sprintf("%s links %s", lt, onOff(slices.Contains(visible, lt))), func(ctx context.Context, ctl engine.Control) error {
			return ctl.SetVisibleLinkTypes(ctx, visible)
		})
	case key.Matches(msg, m.keys.Increase), key.Matches(msg, m.keys.Decrease):
		step := visualization.SliderStep
		if key.Matches(msg, m.keys.Decrease) {
			step = -step
		}
		d := visualization.SnapDistance(m.controls.Distances.Base(lt) + step)
		return m, m.do(fmt.Sprintf("%s distance %.0f", lt, d), func(ctx context.Context, ctl engine.Control) error {
			return ctl.SetLinkDistances(ctx, map[catalog.LinkType]float64{lt: d})
		})
	case key.Matches(msg, m.keys.Reset):
		return m, m.do("Distances reset", func(ctx context.Context, ctl engine.Control) error {
			return ctl.ResetLinkDistances(ctx)
		})
	}
	return m, nil
}

// exportPath writes the path document into the export directory.
func (m model) exportPath() tea.Cmd {
	ctl, dir, now := m.ctl, m.exportDir, m.now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		doc, err := ctl.PathDocument(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return actionMsg{err: err}
		}
		target := filepath.Join(dir, traversal.Filename(now))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Path exported to " + target}
	}
}

func (m *model) describeEvent(ev pubsub.Event) {
	switch p := ev.Payload.(type) {
	case catalog.Node:
		m.setMessage(fmt.Sprintf("Selected %s (%s)", displayName(p), p.Tier), false)
	case []catalog.Node:
		names := make([]string, len(p))
		for i, n := range p {
			names[i] = displayName(n)
		}
		if len(names) == 0 {
			m.setMessage("Path is empty", false)
			return
		}
		m.setMessage("Path: "+strings.Join(names, " → "), false)
	}
}

func (m *model) setMessage(text string, isErr bool) {
	m.message = text
	m.messageErr = isErr
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("stratnet · strategic network layout"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case nodesView:
		s.WriteString(m.renderNodes())
	case controlsView:
		s.WriteString(m.renderControls())
	case pathView:
		s.WriteString(m.renderPath())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.currentView {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = inactiveTabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) renderDashboard() string {
	st := m.stats
	simState := "settled"
	if st.Running {
		simState = "running"
	}

	statsContent := fmt.Sprintf(`Network
Nodes:       %d
Links:       %d
Visible:     %d
Unplaced:    %d

Simulation
Alpha:       %.4f
Ticks:       %d
State:       %s`,
		st.Nodes, st.Links, st.VisibleLinks, st.Unplaced,
		st.Alpha, st.Ticks, simState,
	)

	var tiers strings.Builder
	tiers.WriteString("Tiers\n")
	for _, t := range catalog.Tiers {
		fmt.Fprintf(&tiers, "%-13s %d\n", t, st.NodesByTier[t])
	}
	fmt.Fprintf(&tiers, "\nTraversal:   %s (%d)", onOff(st.Traversal), st.PathLength)

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(statsContent),
		statsBoxStyle.Render(tiers.String()),
	))
}

func (m model) renderNodes() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Nodes"))
	s.WriteString("\n\n")
	s.WriteString(m.nodeTable.View())
	s.WriteString("\n")
	hint := "enter selects the node"
	if m.trav.Active {
		hint = "enter appends the node to the path"
	}
	s.WriteString(helpStyle.Render(hint))
	return contentStyle.Render(s.String())
}

func (m model) renderControls() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Link controls"))
	s.WriteString("\n\n")

	for i, lt := range catalog.LinkTypes {
		cursor := "  "
		label := fmt.Sprintf("%-15s", lt)
		if i == m.linkCursor {
			cursor = "> "
			label = selectedStyle.Render(label)
		}
		visible := lt == catalog.LinkStructure || slices.Contains(m.controls.VisibleLinkTypes, lt)
		box := "[ ]"
		if visible {
			box = "[x]"
		}
		base := m.controls.Distances.Base(lt)
		filled := int(visualization.SnapDistance(base) / visualization.SliderMax * maxBarWidth)
		bar := strings.Repeat("█", filled)
		fmt.Fprintf(&s, "%s%s %s %-30s %5.0f  (effective %.0f)\n",
			cursor, box, label, bar, base, m.controls.Effective[lt])
	}
	fmt.Fprintf(&s, "\nViewport %.0f × %.0f", m.controls.Viewport.Width, m.controls.Viewport.Height)
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓ choose • v toggle • +/- distance • r reset"))
	return contentStyle.Render(s.String())
}

func (m model) renderPath() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Traversal path"))
	s.WriteString("\n\n")
	fmt.Fprintf(&s, "Mode: %s\n\n", onOff(m.trav.Active))
	if len(m.trav.Path) == 0 {
		s.WriteString("No nodes on the path. Turn traversal on and activate nodes.\n")
	}
	for i, n := range m.trav.Path {
		fmt.Fprintf(&s, "%2d. %s (%s)\n", i+1, displayName(n), n.Tier)
	}
	s.WriteString(helpStyle.Render("t toggle mode • c clear • e export"))
	return contentStyle.Render(s.String())
}

func nodeRows(nodes []catalog.Node) []table.Row {
	slices.SortStableFunc(nodes, func(a, b catalog.Node) int {
		return tierOrder(a.Tier) - tierOrder(b.Tier)
	})
	rows := make([]table.Row, len(nodes))
	for i, n := range nodes {
		pinned := ""
		if n.Pinned() {
			pinned = "yes"
		}
		rows[i] = table.Row{n.ID, n.Name, string(n.Tier), pinned}
	}
	return rows
}

// toggleType flips lt in the visible flow types.
func toggleType(visible []catalog.LinkType, lt catalog.LinkType) []catalog.LinkType {
	out := make([]catalog.LinkType, 0, len(visible)+1)
	found := false
	for _, v := range visible {
		if v == lt {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, lt)
	}
	return out
}

func displayName(n catalog.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func tuiCmd(opts *rootOptions) *cobra.Command {
	var dataFile, exportDir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore the network in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			bus := pubsub.NewPubSub()
			defer bus.Shutdown()
			eng, err := engine.New(cfg.Engine(), engine.WithCallbacks(api.EngineCallbacks(bus)), engine.WithLogger(logging.NewNopLogger()))
			if err != nil {
				return err
			}
			ctl := engine.NewController(eng, engine.ControllerConfig{TickInterval: cfg.Layout.TickInterval})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = ctl.Run(ctx)
			}()
			defer func() {
				cancel()
				<-done
			}()

			if dataFile != "" {
				data, err := os.ReadFile(dataFile)
				if err != nil {
					return err
				}
				p, err := catalog.ParsePayload(data)
				if err != nil {
					return err
				}
				if _, err := ctl.ImportData(ctx, p); err != nil {
					return err
				}
			}

			sub, err := bus.Subscribe(ctx, pubsub.TopicNodeSelected, pubsub.TopicPathUpdated)
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			p := tea.NewProgram(initialModel(ctl, sub, exportDir), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON document merged over the seed network")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "Directory path documents are written to")
	return cmd
}
