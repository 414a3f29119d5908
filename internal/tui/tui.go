package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/ui"
	"github.com/Makepad-fr/tada/internal/view"
)

var log = logging.NewLogger("tui")

type screen int

const (
	screenLogin screen = iota
	screenTodos
)

// focus targets on the login screen, in tab order
const (
	focusUsername = iota
	focusPassword
	loginFields
)

type (
	// showTodosMsg ends the post-login pause.
	showTodosMsg struct{}
	// storeChangedMsg reports a write to the store by another process.
	storeChangedMsg struct{}
)

// listItem adapts a view.Entry to bubbles/list.Item
type listItem struct{ view.Entry }

func (i listItem) FilterValue() string { return i.Text }

// Custom delegate to control how entries render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	text := ui.Sanitize(it.Text)
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(t.Cursor)
		text += " " + t.Muted.Render("[d] delete")
	}
	fmt.Fprint(w, prefix+t.Muted.Render(t.Bullet)+" "+text)
}

// Model is the Bubble Tea model driving an app.App.
type Model struct {
	app    *app.App
	screen screen

	username   textinput.Model
	password   textinput.Model
	loginFocus int
	// switching is set between a successful login and the todo screen.
	switching bool

	entry     textinput.Model
	list      list.Model
	listFocus bool

	keys keyMap
	help help.Model

	errMsg string
	watch  <-chan struct{}
	width  int
	height int
}

// New builds the model for a hydrated app. watch may be nil.
func New(a *app.App, watch <-chan struct{}) Model {
	m := Model{
		app:    a,
		keys:   defaultKeys(),
		help:   help.New(),
		watch:  watch,
		width:  80,
		height: 24,
	}

	m.username = textinput.New()
	m.username.Prompt = "Username: "
	m.username.Placeholder = "user"

	m.password = textinput.New()
	m.password.Prompt = "Password: "
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'

	m.entry = textinput.New()
	m.entry.Prompt = "> "
	m.entry.Placeholder = "What needs to be done?"
	m.entry.CharLimit = 0

	m.list = list.New(nil, itemDelegate{}, m.width, m.height)
	m.list.SetShowTitle(false)
	m.list.SetShowHelp(false)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(false)
	m.list.SetShowPagination(true)
	m.list.Styles.PaginationStyle = ui.Current().Help
	m.list.KeyMap.Quit.SetEnabled(false)

	m.syncScreen()
	m.refreshList()
	m.resize()
	return m
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, a *app.App) error {
	var watch <-chan struct{}
	if w := a.Watcher(); w != nil {
		ch, err := w.Watch(ctx)
		if err != nil {
			log.WithError(err).Warn("store watch unavailable")
		} else {
			watch = ch
		}
	}
	p := tea.NewProgram(New(a, watch), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.watch))
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case showTodosMsg:
		m.switching = false
		m.syncScreen()
		return m, nil

	case storeChangedMsg:
		if err := m.app.Reload(); err != nil {
			m.errMsg = errorText(err)
		} else {
			m.errMsg = ""
		}
		if !m.switching {
			m.syncScreen()
		}
		m.refreshList()
		return m, waitForChange(m.watch)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateTodos(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.switching {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextField):
		m.focusLogin((m.loginFocus + 1) % loginFields)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusLogin((m.loginFocus + loginFields - 1) % loginFields)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitLogin()
	}
	return m.updateFocused(msg)
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	err := m.app.Login(m.username.Value(), m.password.Value())
	if err != nil {
		if !apperr.Is(err, apperr.CodeInvalidCredentials) {
			m.errMsg = errorText(err)
		}
		return m, nil
	}
	m.errMsg = ""
	m.username.SetValue("")
	m.password.SetValue("")
	m.refreshList()

	delay := m.app.LoginDelay()
	if delay <= 0 {
		m.syncScreen()
		return m, nil
	}
	m.switching = true
	return m, tea.Tick(delay, func(time.Time) tea.Msg { return showTodosMsg{} })
}

func (m Model) updateTodos(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Logout):
		if err := m.app.Logout(); err != nil {
			m.errMsg = errorText(err)
			return m, nil
		}
		m.errMsg = ""
		m.entry.SetValue("")
		m.listFocus = false
		m.syncScreen()
		return m, nil

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		m.setListFocus(!m.listFocus)
		return m, nil

	case !m.listFocus && key.Matches(msg, m.keys.Submit):
		_, err := m.app.AddTodo(m.entry.Value())
		switch {
		case err == nil:
			m.entry.SetValue("")
			m.errMsg = ""
			m.refreshList()
			m.list.Select(len(m.list.Items()) - 1)
		case apperr.Is(err, apperr.CodeRejected):
			// blank entry: nothing to add
		default:
			m.errMsg = errorText(err)
		}
		return m, nil

	case m.listFocus && key.Matches(msg, m.keys.Delete):
		it, ok := m.list.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		if err := m.app.DeleteTodo(it.Index); err != nil {
			m.errMsg = errorText(err)
			return m, nil
		}
		m.errMsg = ""
		m.refreshList()
		return m, nil
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to whichever widget holds focus.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.screen == screenLogin && m.loginFocus == focusUsername:
		m.username, cmd = m.username.Update(msg)
	case m.screen == screenLogin:
		m.password, cmd = m.password.Update(msg)
	case m.listFocus:
		m.list, cmd = m.list.Update(msg)
	default:
		m.entry, cmd = m.entry.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLogin(i int) {
	m.loginFocus = i
	if i == focusUsername {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.username.Blur()
	}
}

func (m *Model) setListFocus(on bool) {
	m.listFocus = on
	if on {
		m.entry.Blur()
	} else {
		m.entry.Focus()
	}
}

// syncScreen derives the screen from the session state.
func (m *Model) syncScreen() {
	if m.app.LoggedIn() {
		m.screen = screenTodos
		m.keys.onTodoView = true
		m.username.Blur()
		m.password.Blur()
		m.setListFocus(m.listFocus)
		return
	}
	m.screen = screenLogin
	m.keys.onTodoView = false
	m.entry.Blur()
	m.focusLogin(m.loginFocus)
}

// refreshList rebuilds list items from the view model so positions always
// match the current list.
func (m *Model) refreshList() {
	entries := m.app.View().Entries
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = listItem{e}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

func (m *Model) resize() {
	innerW := m.width - 4
	if innerW < 20 {
		innerW = 20
	}
	listH := m.height - 10
	if listH < 3 {
		listH = 3
	}
	m.list.SetSize(innerW, listH)
	m.entry.Width = innerW - 4
	m.help.Width = innerW
}

func (m Model) View() string {
	t := ui.Current()
	vm := m.app.View()

	var lines []string
	if m.screen == screenLogin {
		lines = append(lines,
			t.Title.Render("Login"),
			"",
			m.username.View(),
			m.password.View(),
			"",
			t.Accent.Render("[ Login ]"),
		)
	} else {
		header := fmt.Sprintf("%s   %s %d",
			t.Title.Render("Todos"),
			t.Accent.Render("Total"), len(vm.Entries),
		)
		inputBox := lipgloss.NewStyle().Border(t.Border).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		lines = append(lines, header, inputBox.Render(m.entry.View()))
		if len(vm.Entries) == 0 {
			lines = append(lines, t.Muted.Render("no items"))
		} else {
			lines = append(lines, m.list.View())
		}
	}

	// Status region: announced politely, never steals focus.
	lines = append(lines, "", statusLine(vm.Status))
	if m.errMsg != "" {
		lines = append(lines, t.Error.Render(t.Cross+" "+m.errMsg))
	}
	lines = append(lines, m.help.View(m.keys))
	return ui.PanelString(lines)
}

func statusLine(s view.Status) string {
	t := ui.Current()
	msg := ui.Sanitize(s.Message)
	switch s.Kind {
	case view.StatusSuccess:
		return t.Success.Render(t.Check + " " + msg)
	case view.StatusError:
		return t.Error.Render(t.Cross + " " + msg)
	default:
		return ""
	}
}

func errorText(err error) string {
	switch apperr.GetCode(err) {
	case apperr.CodeStoreCorrupt:
		return "stored todos are corrupt; fix or remove the store file"
	case apperr.CodeStoreIO:
		return "could not reach the store: " + err.Error()
	default:
		return err.Error()
	}
}
