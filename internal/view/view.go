// Package view maps application state to a render-ready model. It holds no
// storage concerns; every function here is pure.
package view

import "strconv"

// State is the application-level state of the view.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedIn:
		return "logged-in"
	default:
		return "logged-out"
	}
}

// StatusKind classifies the message in the live status region.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusSuccess
	StatusError
)

// Status is the message announced in the login status region.
type Status struct {
	Kind    StatusKind
	Message string
}

// Entry is one todo as displayed. Index is its position at build time and is
// what the delete affordance acts on.
type Entry struct {
	Text  string
	Index int
}

type Model struct {
	State   State
	Status  Status
	Entries []Entry
}

// Build projects session and list state into a Model. Entries stay empty
// while logged out even when todos exist.
func Build(loggedIn bool, todos []string, status Status) Model {
	m := Model{State: LoggedOut, Status: status, Entries: []Entry{}}
	if !loggedIn {
		return m
	}
	m.State = LoggedIn
	m.Entries = make([]Entry, len(todos))
	for i, text := range todos {
		m.Entries[i] = Entry{Text: text, Index: i}
	}
	return m
}

// Hook ids addressing each interactive region of the view.
const (
	HookUsername    = "username"
	HookPassword    = "password"
	HookLoginSubmit = "login-button"
	HookLoginStatus = "login-message"
	HookLoginForm   = "login-form"
	HookTodoApp     = "todo-app"
	HookLogout      = "logout-button"
	HookTodoInput   = "todo-input"
	HookTodoSubmit  = "add-todo"
	HookTodoList    = "todo-list"
)

// HookEntryText is the id of the text region of the entry at index.
func HookEntryText(index int) string { return "todo-text-" + strconv.Itoa(index) }

// HookEntryDelete is the id of the delete action of the entry at index.
func HookEntryDelete(index int) string { return "delete-" + strconv.Itoa(index) }
