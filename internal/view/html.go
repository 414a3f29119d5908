package view

import (
	"html/template"
	"io"
)

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"textID":   HookEntryText,
	"deleteID": HookEntryDelete,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Todo</title></head>
<body>
<form id="{{.Hooks.LoginForm}}"{{if .LoggedIn}} hidden{{end}}>
  <input id="{{.Hooks.Username}}" name="username" autocomplete="username">
  <input id="{{.Hooks.Password}}" name="password" type="password" autocomplete="current-password">
  <button id="{{.Hooks.LoginSubmit}}" type="submit">Login</button>
</form>
<p id="{{.Hooks.LoginStatus}}" role="status" aria-live="polite"{{with .StatusClass}} class="{{.}}"{{end}}>{{.Model.Status.Message}}</p>
<section id="{{.Hooks.TodoApp}}"{{if not .LoggedIn}} hidden{{end}}>
  <button id="{{.Hooks.Logout}}" type="button">Logout</button>
  <form>
    <input id="{{.Hooks.TodoInput}}" name="todo">
    <button id="{{.Hooks.TodoSubmit}}" type="submit">Add</button>
  </form>
  <ul id="{{.Hooks.TodoList}}">
{{- range .Model.Entries}}
    <li><span id="{{textID .Index}}">{{.Text}}</span> <button id="{{deleteID .Index}}" type="button" data-index="{{.Index}}">Delete</button></li>
{{- end}}
  </ul>
</section>
</body>
</html>
`))

type hooks struct {
	LoginForm, Username, Password, LoginSubmit, LoginStatus string
	TodoApp, Logout, TodoInput, TodoSubmit, TodoList        string
}

var pageHooks = hooks{
	LoginForm:   HookLoginForm,
	Username:    HookUsername,
	Password:    HookPassword,
	LoginSubmit: HookLoginSubmit,
	LoginStatus: HookLoginStatus,
	TodoApp:     HookTodoApp,
	Logout:      HookLogout,
	TodoInput:   HookTodoInput,
	TodoSubmit:  HookTodoSubmit,
	TodoList:    HookTodoList,
}

// WriteHTML renders m as a static HTML page. Todo text and status messages
// are escaped, so markup inside them is shown literally.
func WriteHTML(w io.Writer, m Model) error {
	class := ""
	switch m.Status.Kind {
	case StatusSuccess:
		class = "success"
	case StatusError:
		class = "error"
	}
	return pageTmpl.Execute(w, struct {
		Model       Model
		Hooks       hooks
		LoggedIn    bool
		StatusClass string
	}{m, pageHooks, m.State == LoggedIn, class})
}
