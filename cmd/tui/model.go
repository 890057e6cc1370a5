// Package tui is a terminal browser for the portfolio content.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
)

const loadTimeout = 10 * time.Second

// ViewState represents the current view state of the TUI
type ViewState int

const (
	// ViewMain is the section menu
	ViewMain ViewState = iota
	// ViewLoading waits for the content loader
	ViewLoading
	// ViewList lists the entries of one section
	ViewList
	// ViewDetail shows a single entry
	ViewDetail
	// ViewError shows the last load failure
	ViewError
)

// Section names a content collection
type Section string

const (
	SectionProjects  Section = "projects"
	SectionBlogPosts Section = "blog"
	SectionSkills    Section = "skills"
	SectionProfile   Section = "profile"
)

// Loader returns the current content
type Loader func(ctx context.Context) (*dto.Snapshot, error)

// MenuItem represents a menu item in the TUI
type MenuItem struct {
	title       string
	description string
	section     Section
}

// Title returns the menu item title (implements list.Item)
func (m MenuItem) Title() string { return m.title }

// Description returns the menu item description (implements list.Item)
func (m MenuItem) Description() string { return m.description }

// FilterValue returns the filter value (implements list.Item)
func (m MenuItem) FilterValue() string { return m.title }

// Entry is one row of a section list
type Entry struct {
	title       string
	description string
	detail      string
}

// Title implements list.Item
func (e Entry) Title() string { return e.title }

// Description implements list.Item
func (e Entry) Description() string { return e.description }

// FilterValue implements list.Item
func (e Entry) FilterValue() string { return e.title }

// contentMsg carries the result of a load
type contentMsg struct {
	snap *dto.Snapshot
	err  error
}

// Model is the main TUI model following the Bubble Tea architecture
type Model struct {
	state ViewState
	// prev is restored when a load finishes
	prev ViewState

	menuList  list.Model
	entryList list.Model
	spinner   spinner.Model

	load    Loader
	content *dto.Snapshot
	section Section
	detail  Entry
	err     error

	width  int
	height int

	quitting bool
}

// keyMap defines the key bindings for the TUI
type keyMap struct {
	Enter  key.Binding
	Back   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a browser reading content from load
func NewModel(load Loader) Model {
	items := []list.Item{
		MenuItem{title: "Projects", description: "Every project, drafts included", section: SectionProjects},
		MenuItem{title: "Blog posts", description: "Posts with their view counters", section: SectionBlogPosts},
		MenuItem{title: "Skills", description: "Skill groups", section: SectionSkills},
		MenuItem{title: "Profile", description: "Owner profile and CV", section: SectionProfile},
	}

	menuList := list.New(items, newDelegate(), 0, 0)
	menuList.Title = "Laisky Portfolio"
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(false)
	menuList.Styles.Title = GetHeaderStyle()

	entryList := list.New(nil, newDelegate(), 0, 0)
	entryList.SetShowStatusBar(true)
	entryList.Styles.Title = GetHeaderStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = GetProgressStyle()

	return Model{
		state:     ViewLoading,
		prev:      ViewMain,
		menuList:  menuList,
		entryList: entryList,
		spinner:   sp,
		load:      load,
	}
}

func newDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).
		BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(secondaryColor)
	return delegate
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		snap, err := load(ctx)
		return contentMsg{snap: snap, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menuList.SetSize(msg.Width-4, msg.Height-6)
		m.entryList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case contentMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = ViewError
			return m, nil
		}
		m.content = msg.snap
		m.err = nil
		m.state = m.prev
		if m.section != "" {
			m.entryList.SetItems(entries(m.content, m.section))
		}
		return m, nil

	case spinner.TickMsg:
		if m.state == ViewLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// the filter prompt owns every key while typing
	if m.state == ViewList && m.entryList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.entryList, cmd = m.entryList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Reload) && m.state != ViewLoading:
		return m.reload()
	}

	switch m.state {
	case ViewMain:
		return m.handleMainMenu(msg)
	case ViewList:
		return m.handleList(msg)
	case ViewDetail:
		if key.Matches(msg, keys.Back) {
			m.state = ViewList
		}
	case ViewError:
		if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Enter) {
			m.state = ViewMain
		}
	}

	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.prev = m.state
	if m.prev == ViewError || m.prev == ViewDetail {
		m.prev = ViewMain
		if m.section != "" {
			m.prev = ViewList
		}
	}
	m.state = ViewLoading
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

// handleMainMenu handles key events in the main menu
func (m Model) handleMainMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if item, ok := m.menuList.SelectedItem().(MenuItem); ok {
			m.section = item.section
			m.entryList.Title = item.title
			m.entryList.ResetFilter()
			m.entryList.ResetSelected()
			m.entryList.SetItems(entries(m.content, m.section))
			m.state = ViewList
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.menuList, cmd = m.menuList.Update(msg)
	return m, cmd
}

func (m Model) handleList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back) && m.entryList.FilterState() == list.Unfiltered:
		m.state = ViewMain
		m.section = ""
		return m, nil
	case key.Matches(msg, keys.Enter):
		if e, ok := m.entryList.SelectedItem().(Entry); ok {
			m.detail = e
			m.state = ViewDetail
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

// entries flattens one section of snap into list rows
func entries(snap *dto.Snapshot, section Section) []list.Item {
	if snap == nil {
		return nil
	}

	var items []list.Item
	switch section {
	case SectionProjects:
		for _, p := range snap.Projects {
			items = append(items, Entry{
				title:       fmt.Sprintf("#%d %s", p.ID, p.Title),
				description: joinNonEmpty(" • ", string(p.Category), string(p.Status), strings.Join(p.Tags, ", ")),
				detail: joinNonEmpty("\n\n", p.Description,
					field("Date", p.Date), field("GitHub", p.GithubURL), field("Image", p.Image)),
			})
		}
	case SectionBlogPosts:
		for _, p := range snap.BlogPosts {
			items = append(items, Entry{
				title:       fmt.Sprintf("#%d %s", p.ID, p.Title),
				description: joinNonEmpty(" • ", string(p.Category), string(p.Status), fmt.Sprintf("%d views", p.Views), p.Date),
				detail: joinNonEmpty("\n\n", field("Slug", p.Slug), p.Excerpt,
					field("Read time", p.ReadTime), strings.Join(p.Paragraphs(), "\n\n")),
			})
		}
	case SectionSkills:
		for _, s := range snap.Skills {
			items = append(items, Entry{
				title:       s.Category,
				description: fmt.Sprintf("%d items", len(s.Items)),
				detail:      "• " + strings.Join(s.Items, "\n• "),
			})
		}
	case SectionProfile:
		p := snap.Profile
		links := p.SocialLinks
		items = append(items,
			Entry{
				title:       p.Name,
				description: p.Title,
				detail: joinNonEmpty("\n", field("Email", p.Email), field("Location", p.Location),
					field("Contact", p.Contact), p.Bio),
			},
			Entry{
				title:       "Social links",
				description: "shown in the footer",
				detail: joinNonEmpty("\n", field("GitHub", links.Github), field("LinkedIn", links.Linkedin),
					field("Twitter", links.Twitter), field("Website", links.Website),
					field("Dribbble", links.Dribbble), field("YouTube", links.Youtube),
					field("Instagram", links.Instagram)),
			},
			Entry{
				title:       "CV",
				description: p.CV.Title,
				detail: joinNonEmpty("\n", field("File", p.CV.FileName),
					field("Uploaded", p.CV.UploadDate), field("Path", p.CV.Path)),
			},
			Entry{
				title:       "Page views",
				description: fmt.Sprintf("%d", snap.PageViews),
				detail:      fmt.Sprintf("%d sessions visited the site", snap.PageViews),
			},
		)
	}

	return items
}

func field(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

// joinNonEmpty joins parts with sep, skipping blank parts
func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return GetSubtitleStyle().Render("Goodbye!\n")
	}

	switch m.state {
	case ViewMain:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.menuList.View(),
			GetHelpStyle().Render("↑/↓ navigate • enter select • r reload • q quit"),
		)
	case ViewLoading:
		return GetBoxStyle().Render(
			lipgloss.JoinVertical(lipgloss.Center,
				m.spinner.View()+" Loading content...",
				GetSubtitleStyle().Render("Please wait..."),
			),
		)
	case ViewList:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.entryList.View(),
			GetHelpStyle().Render("enter open • / filter • esc back • r reload • q quit"),
		)
	case ViewDetail:
		return m.renderDetail()
	case ViewError:
		return GetBoxStyle().Render(
			lipgloss.JoinVertical(lipgloss.Left,
				GetErrorStyle().Render("Load failed"),
				"",
				GetSubtitleStyle().Render(fmt.Sprint(m.err)),
				"",
				GetHelpStyle().Render("enter/esc: back to menu • r: retry • q: quit"),
			),
		)
	default:
		return "Unknown state"
	}
}

func (m Model) renderDetail() string {
	body := m.detail.detail
	if body == "" {
		body = GetSubtitleStyle().Render("(empty)")
	}
	if m.width > 8 {
		body = lipgloss.NewStyle().Width(m.width - 8).Render(body)
	}

	return GetBoxStyle().Render(
		lipgloss.JoinVertical(lipgloss.Left,
			GetTitleStyle().Render(m.detail.title),
			GetSubtitleStyle().Render(m.detail.description),
			"",
			body,
			GetHelpStyle().Render("esc: back • r: reload • q: quit"),
		),
	)
}
