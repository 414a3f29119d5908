// Package app is the bridge between user gestures and the session and todo
// managers. Every gesture runs to completion before the next one; callers
// redraw from View afterwards.
package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/todo"
	"github.com/Makepad-fr/tada/internal/view"
)

const (
	MsgLoginOK     = "Login successful!"
	MsgLoginFailed = "Invalid username or password"
)

type App struct {
	store      store.Store
	session    *session.Manager
	todos      *todo.Manager
	status     view.Status
	loginDelay time.Duration
	log        *logrus.Entry
}

type Option func(*App)

// WithLoginDelay sets the pause before the todo view replaces the login view.
func WithLoginDelay(d time.Duration) Option {
	return func(a *App) {
		if d >= 0 {
			a.loginDelay = d
		}
	}
}

// New hydrates the session and the todo list from s. A corrupt todo list is
// returned as STORE_CORRUPT together with a usable App holding an empty list,
// so the caller can choose between aborting and carrying on.
func New(s store.Store, opts ...Option) (*App, error) {
	a := &App{
		store: s,
		todos: todo.NewManager(s),
		log:   logging.NewLogger("app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	sess, err := session.NewManager(s)
	if err != nil {
		return nil, err
	}
	a.session = sess

	if _, err := a.todos.Load(); err != nil {
		if apperr.Is(err, apperr.CodeStoreCorrupt) {
			return a, err
		}
		return nil, err
	}
	a.log.WithFields(logrus.Fields{
		"logged_in": sess.IsLoggedIn(),
		"todos":     a.todos.Count(),
	}).Debug("hydrated")
	return a, nil
}

func (a *App) LoginDelay() time.Duration { return a.loginDelay }

func (a *App) LoggedIn() bool { return a.session.IsLoggedIn() }

// Todos returns a copy of the current list.
func (a *App) Todos() []string { return a.todos.Items() }

// Login attempts a login and updates the status message either way.
func (a *App) Login(username, password string) error {
	err := a.session.AttemptLogin(username, password)
	switch {
	case err == nil:
		a.status = view.Status{Kind: view.StatusSuccess, Message: MsgLoginOK}
	case apperr.Is(err, apperr.CodeInvalidCredentials):
		a.status = view.Status{Kind: view.StatusError, Message: MsgLoginFailed}
	default:
		a.log.WithError(err).Error("login failed")
	}
	return err
}

func (a *App) Logout() error {
	if err := a.session.Logout(); err != nil {
		a.log.WithError(err).Error("logout failed")
		return err
	}
	a.status = view.Status{}
	return nil
}

// AddTodo adds text to the list. Blank text is ignored and reported as
// TODO_REJECTED so callers may stay silent about it.
func (a *App) AddTodo(text string) (int, error) {
	idx, err := a.todos.Add(text)
	if err != nil {
		if !apperr.Is(err, apperr.CodeRejected) {
			a.log.WithError(err).Error("add todo failed")
		}
		return 0, err
	}
	a.log.WithField("index", idx).Debug("todo added")
	return idx, nil
}

// DeleteTodo removes the entry at index. A stale or bogus index is logged
// and otherwise ignored.
func (a *App) DeleteTodo(index int) error {
	err := a.todos.Delete(index)
	if apperr.Is(err, apperr.CodeOutOfRange) {
		a.log.WithFields(logrus.Fields{"index": index, "count": a.todos.Count()}).
			Warn("delete ignored: index out of range")
		return nil
	}
	if err != nil {
		a.log.WithError(err).Error("delete todo failed")
		return err
	}
	a.log.WithField("index", index).Debug("todo deleted")
	return nil
}

// Reload re-reads session and list after the store changed underneath us.
func (a *App) Reload() error {
	if err := a.session.Hydrate(); err != nil {
		return err
	}
	if _, err := a.todos.Load(); err != nil {
		return err
	}
	a.log.Debug("reloaded from store")
	return nil
}

// View builds the current view model.
func (a *App) View() view.Model {
	return view.Build(a.session.IsLoggedIn(), a.todos.Items(), a.status)
}

// Watcher returns the store as a store.Watcher, or nil when it cannot watch.
func (a *App) Watcher() store.Watcher {
	w, _ := a.store.(store.Watcher)
	return w
}
