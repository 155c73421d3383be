package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pengyanjia146-a11y/wyy/internal/engine"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueryView ViewState = iota
	ResultListView
	DetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	aggregator *engine.Aggregator
	resolver   *engine.Resolver
	credential string
	width      int
	height     int
	input      textinput.Model
	resultList list.Model
	results    []models.Song
	pending    int // providers still searching
	batches    <-chan models.ProviderResult
	selected   *models.Song
	details    *models.PlayDetails
	err        error
	help       help.Model
	keys       keyMap
}

type batchMsg struct {
	result models.ProviderResult
	ok     bool // false once the stream is drained
}

type resolvedMsg struct {
	details *models.PlayDetails
	err     error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, aggregator *engine.Aggregator, resolver *engine.Resolver, credential string) *Model {
	input := textinput.New()
	input.Placeholder = "song, artist or album"
	input.Focus()
	input.CharLimit = 128
	input.Width = 40

	return &Model{
		ctx:        ctx,
		view:       QueryView,
		aggregator: aggregator,
		resolver:   resolver,
		credential: credential,
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueryView:
			return m.handleQueryKeys(msg)
		case ResultListView:
			return m.handleResultKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case batchMsg:
		if !msg.ok {
			m.pending = 0
			return m, nil
		}
		m.pending--
		if len(msg.result.Songs) > 0 {
			m.results = append(m.results, msg.result.Songs...)
			items := make([]list.Item, len(m.results))
			for i, s := range m.results {
				items[i] = songItem{song: s}
			}
			m.resultList.SetItems(items)
		}
		return m, m.waitForBatch()

	case resolvedMsg:
		m.details = msg.details
		m.err = msg.err
		m.view = DetailView
		return m, nil
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QueryView:
		return m.renderQuery()
	case ResultListView:
		return m.renderResults()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		return m, m.startSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = QueryView
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		selected := m.resultList.SelectedItem()
		if selected != nil {
			if it, ok := selected.(songItem); ok {
				m.selected = &it.song
				return m, m.resolveSelected(it.song)
			}
		}
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultListView
		m.details = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueryView:
		m.input, cmd = m.input.Update(msg)
	case ResultListView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSearch(query string) tea.Cmd {
	m.results = nil
	m.err = nil
	m.pending = len(m.aggregator.Providers())
	m.batches = m.aggregator.Search(m.ctx, query, m.credential)

	m.resultList = list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = fmt.Sprintf("Results for '%s'", query)
	m.resultList.SetSize(m.width-4, m.height-8)
	m.view = ResultListView

	return m.waitForBatch()
}

// waitForBatch pumps the aggregation channel: each received batch
// re-arms the command until the channel closes.
func (m *Model) waitForBatch() tea.Cmd {
	return func() tea.Msg {
		if m.batches == nil {
			return batchMsg{ok: false}
		}
		res, ok := <-m.batches
		if !ok {
			return batchMsg{ok: false}
		}
		return batchMsg{result: res, ok: true}
	}
}

func (m *Model) resolveSelected(song models.Song) tea.Cmd {
	return func() tea.Msg {
		details, err := m.resolver.Resolve(m.ctx, song, models.QualityHigh, m.credential)
		return resolvedMsg{details: details, err: err}
	}
}

func (m *Model) renderQuery() string {
	title := styles.title.Render("Search all sources")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderResults() string {
	status := ""
	if m.pending > 0 {
		status = styles.help.Render(fmt.Sprintf("searching... %d sources left", m.pending))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.resultList.View(), status, helpView)
}

func (m *Model) renderDetail() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Resolution failed: %v\n\nPress esc to go back", m.err))
	}
	if m.selected == nil || m.details == nil {
		return styles.err.Render("Nothing selected\n\nPress esc to go back")
	}

	title := styles.title.Render(fmt.Sprintf("%s - %s", m.selected.Artist, m.selected.Title))
	info := fmt.Sprintf("\nSource: %s\nURL: %s\n", m.selected.Source, m.details.URL)
	if m.details.Lyric != "" {
		info += styles.ok.Render("\nlyrics available")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}
