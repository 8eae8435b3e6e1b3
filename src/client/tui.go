package client

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apimgr/earthquakes/src/server/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type feedMsg struct {
	feed *Feed
	err  error
}

type revealTickMsg time.Time

// tuiModel drives the interactive earthquake browser. The timed reveal
// re-uses the same state machine the server sessions run, ticking at the
// fixed reveal period.
type tuiModel struct {
	client *HTTPClient

	loading bool
	err     error

	points   []model.DisplayPoint
	filtered []model.DisplayPoint
	filter   model.FilterState
	anim     model.AnimationState

	cursor    int
	regionIdx int
	regions   []string

	width  int
	height int
}

func newTUIModel(config *CLIConfig) tuiModel {
	filter := model.DefaultFilterState(time.Now())
	if config.Filter.MinMagnitude > 0 {
		filter.MinMagnitude = config.Filter.MinMagnitude
	}
	if config.Filter.MaxMagnitude > 0 {
		filter.MaxMagnitude = config.Filter.MaxMagnitude
	}
	if config.Filter.Region != "" {
		filter.Region = config.Filter.Region
	}
	filter.SearchTerm = config.Filter.Search

	regions := model.Regions()
	regionIdx := 0
	for i, r := range regions {
		if r == filter.Region {
			regionIdx = i
			break
		}
	}

	return tuiModel{
		client:    NewHTTPClient(config),
		loading:   true,
		filter:    filter,
		regions:   regions,
		regionIdx: regionIdx,
		width:     80,
		height:    24,
	}
}

func (m tuiModel) fetchCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		feed, err := client.FetchEarthquakes(FeedQuery{})
		return feedMsg{feed: feed, err: err}
	}
}

func revealTick() tea.Cmd {
	return tea.Tick(model.AnimationTickInterval, func(t time.Time) tea.Msg {
		return revealTickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return m.fetchCmd()
}

// applyFilter recomputes the filtered list from scratch. Any running reveal
// is cancelled: its index is meaningless against the new subset.
func (m *tuiModel) applyFilter() {
	m.filtered = m.filter.Apply(m.points)
	m.anim.Stop()
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case feedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.points = model.EnrichEvents(msg.feed.Earthquakes)
			m.applyFilter()
		}
		return m, nil

	case revealTickMsg:
		if !m.anim.Running {
			return m, nil
		}
		m.anim.Tick(len(m.filtered))
		if m.anim.Running {
			return m, revealTick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "r":
			if !m.loading {
				m.loading = true
				m.err = nil
				return m, m.fetchCmd()
			}

		case " ":
			if m.anim.Running {
				m.anim.Stop()
				return m, nil
			}
			if m.anim.Start(len(m.filtered)) {
				return m, revealTick()
			}

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}

		case "tab":
			m.regionIdx = (m.regionIdx + 1) % len(m.regions)
			m.filter.Region = m.regions[m.regionIdx]
			m.applyFilter()

		case "+", "=":
			if m.filter.MinMagnitude+0.5 <= m.filter.MaxMagnitude {
				m.filter.MinMagnitude += 0.5
				m.applyFilter()
			}

		case "-", "_":
			if m.filter.MinMagnitude >= 0.5 {
				m.filter.MinMagnitude -= 0.5
				m.applyFilter()
			}
		}
	}

	return m, nil
}

func (m tuiModel) View() string {
	var s string

	s += titleStyle.Render("Earthquakes") + "\n"

	if m.loading {
		s += statusStyle.Render("Loading earthquake data...") + "\n"
		return s
	}
	if m.err != nil {
		s += errorStyle.Render("Error: "+m.err.Error()) + "\n"
		s += helpStyle.Render("r reload · q quit") + "\n"
		return s
	}

	s += statusStyle.Render(fmt.Sprintf("%d of %d shown · region %s · min M%.1f",
		len(m.filtered), len(m.points), m.filter.Region, m.filter.MinMagnitude)) + "\n\n"

	visible := m.anim.VisibleCount(len(m.filtered))

	// List window sized to terminal height, leaving room for header/detail/help
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	for i := start; i < visible && i < start+rows; i++ {
		p := &m.filtered[i]
		magStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color))
		line := fmt.Sprintf("%s %s %s", p.TimeString, magStyle.Render(fmt.Sprintf("M%4.1f", p.Mag())), p.Place)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		s += line + "\n"
	}

	if m.anim.Running {
		s += "\n" + statusStyle.Render(fmt.Sprintf("Replaying %d/%d...", m.anim.Index, len(m.filtered))) + "\n"
	} else if m.cursor < len(m.filtered) {
		p := &m.filtered[m.cursor]
		s += "\n" + labelStyle.Render(p.Label) + "\n"
		s += labelStyle.Render(fmt.Sprintf("Elevation: %.3f", model.HoverElevation(p.Mag()))) + "\n"
	}

	s += "\n" + helpStyle.Render("space replay · tab region · +/- magnitude · ↑/↓ select · r reload · q quit") + "\n"
	return s
}

// runTUI launches the interactive TUI mode
func runTUI(config *CLIConfig) error {
	p := tea.NewProgram(newTUIModel(config), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return NewAPIError(fmt.Sprintf("TUI error: %v", err))
	}
	return nil
}
