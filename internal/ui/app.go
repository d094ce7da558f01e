package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/mutation"
	"github.com/Sternrassler/space-catalog/pkg/notify"
	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

// prefetchThreshold is how close to the last row the selection may get
// before the next page is requested.
const prefetchThreshold = 3

// mode is the active interaction layer.
type mode int

const (
	modeList mode = iota
	modeCreate
	modeConfirmDelete
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Fetcher   *pagination.Fetcher
	Mutations *mutation.Handler
	// Notices is the queue the mutation handler reports outcomes to.
	Notices  *notify.Queue
	Now      func() time.Time
	ToastTTL time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	fetcher   *pagination.Fetcher
	mutations *mutation.Handler
	notices   *notify.Queue
	now       func() time.Time
	toastTTL  time.Duration

	// UI state
	keys     keyMap
	styles   Styles
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool
	mode     mode
	showHelp bool

	// Data state
	items []catalog.SpaceObject
	state pagination.State

	// Listing state
	selected int
	offset   int

	// Dialogs
	form     *createForm
	pending  *mutation.PendingDelete
	deleting bool

	// Notifications
	toasts   []toast
	toastSeq int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.ToastTTL
	if ttl <= 0 {
		ttl = 4 * time.Second
	}

	theme := DefaultTheme()
	styles := theme.Styles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentText

	m := Model{
		ctx:       ctx,
		fetcher:   opts.Fetcher,
		mutations: opts.Mutations,
		notices:   opts.Notices,
		now:       now,
		toastTTL:  ttl,
		keys:      DefaultKeyMap(),
		styles:    styles,
		help:      help.New(),
		spinner:   sp,
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.fetcher != nil {
		cmds = append(cmds, loadCmd(m.ctx, m.fetcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.clampSelection()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		m.sync()
		cmd := m.drainNotices()
		return m, cmd

	case createdMsg:
		return m.handleCreated(msg)

	case deletedMsg:
		return m.handleDeleted(msg)

	case toastExpiredMsg:
		m.dropToast(msg.id)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case modeCreate:
		if m.form != nil {
			return m.renderForm()
		}
	case modeConfirmDelete:
		return m.renderConfirm()
	}
	return m.renderMain()
}

// Run starts the UI and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// handleKey routes keyboard input to the active layer.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case modeCreate:
		return m.handleFormKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		cmd := m.maybeFetchNext()
		return m, cmd

	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.selected = len(m.items) - 1
		m.clampSelection()
		cmd := m.maybeFetchNext()
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.listHeight())
		cmd := m.maybeFetchNext()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		if m.fetcher == nil {
			return m, nil
		}
		m.fetcher.Invalidate()
		m.sync()
		return m, loadCmd(m.ctx, m.fetcher)

	case key.Matches(msg, m.keys.New):
		if m.mutations == nil {
			return m, nil
		}
		m.form = newCreateForm(m.styles)
		m.mode = modeCreate
		return m, m.form.focusCmd()

	case key.Matches(msg, m.keys.Delete):
		obj, ok := m.selectedObject()
		if !ok || m.mutations == nil || m.deleting {
			return m, nil
		}
		m.pending = m.mutations.RequestDelete(obj)
		m.mode = modeConfirmDelete
		return m, nil
	}

	return m, nil
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		m.form.submitting = false
	}

	var verr *catalog.ValidationError
	if errors.As(msg.err, &verr) {
		if m.form != nil {
			m.form.errs = verr
		}
		return m, nil
	}

	if msg.err != nil {
		// The form stays open so the input can be resubmitted.
		if m.form != nil {
			m.form.failure = msg.err.Error()
		}
		m.sync()
		cmd := m.drainNotices()
		return m, cmd
	}

	m.form = nil
	m.mode = modeList
	m.sync()
	notices := m.drainNotices()
	return m, tea.Batch(notices, loadCmd(m.ctx, m.fetcher))
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	m.deleting = false
	m.sync()
	notices := m.drainNotices()
	if msg.err != nil || m.fetcher == nil {
		return m, notices
	}
	return m, tea.Batch(notices, loadCmd(m.ctx, m.fetcher))
}

// maybeFetchNext requests the next page when the selection is close to the
// last loaded row and more rows exist.
func (m *Model) maybeFetchNext() tea.Cmd {
	if m.fetcher == nil || !m.state.HasMore || m.state.Loading || m.state.FetchingNext {
		return nil
	}
	if len(m.items) == 0 || m.selected < len(m.items)-prefetchThreshold {
		return nil
	}
	m.state.FetchingNext = true
	return fetchNextCmd(m.ctx, m.fetcher)
}

// sync copies the fetcher's view into the model.
func (m *Model) sync() {
	if m.fetcher == nil {
		return
	}
	m.state = m.fetcher.State()
	m.items = m.fetcher.View()
	m.clampSelection()
}

func (m *Model) selectedObject() (catalog.SpaceObject, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return catalog.SpaceObject{}, false
	}
	return m.items[m.selected], true
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

// clampSelection keeps the selection on a row and the row on screen.
func (m *Model) clampSelection() {
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// listHeight is the number of table rows that fit on screen.
func (m Model) listHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, column header, status line, help line
	h := m.height - 4 - len(m.toasts)
	if h < 1 {
		return 1
	}
	return h
}
