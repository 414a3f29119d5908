package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/app"
)

type harness struct {
	t     *testing.T
	store string
	extra []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TADA_STORE", "TADA_STORE_PATH", "TADA_THEME", "TADA_LOG_LEVEL", "TADA_LOGIN_DELAY"} {
		t.Setenv(k, "")
	}
	return &harness{t: t, store: filepath.Join(home, "storage.json")}
}

// run executes the CLI with stdin and returns the exit code and both streams.
func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	full := append([]string{"--theme", "mono", "--store-path", h.store}, h.extra...)
	full = append(full, args...)
	var out, errOut bytes.Buffer
	code := Run(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (h *harness) login() {
	h.t.Helper()
	code, _, errOut := h.run("", "login", "-u", "user", "-p", "pw")
	require.Equal(h.t, 0, code, errOut)
}

func TestLoginWithFlags(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("", "login", "-u", "user", "-p", "pw")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, app.MsgLoginOK)

	raw, err := os.ReadFile(h.store)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"loggedIn": "true"`)
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("user\npw\n", "login")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, app.MsgLoginOK)
}

func TestLoginEitherFieldIsEnough(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("", "login", "-u", "user", "-p", "wrong")
	assert.Equal(t, 0, code)
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("", "login", "-u", "nobody", "-p", "nothing")
	assert.Equal(t, 1, code)
	assert.NotContains(t, out, app.MsgLoginOK)
	assert.Contains(t, errOut, app.MsgLoginFailed)

	_, err := os.Stat(h.store)
	assert.True(t, os.IsNotExist(err), "failed login must not write")
}

func TestAddListRemove(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.run("", "add", "Buy", "milk")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "added #1")

	code, out, _ = h.run("", "add", "Call mom")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "added #2")

	code, out, _ = h.run("", "ls")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Total 2")
	assert.Contains(t, out, " 1.")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Call mom")

	code, out, _ = h.run("", "rm", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "removed")

	raw, err := os.ReadFile(h.store)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"todos": "[\"Call mom\"]"`)
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)
	h.login()
	code, out, _ := h.run("", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "no items")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, _, _ = h.run("", "add", "only one")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"remove out of range", []string{"rm", "5"}, "out of range"},
		{"remove zero", []string{"rm", "0"}, "out of range"},
		{"remove not a number", []string{"rm", "first"}, "not a number"},
		{"remove without index", []string{"rm"}, "usage: tada rm"},
		{"add blank", []string{"add", "   "}, "empty text"},
		{"add nothing", []string{"add"}, "usage: tada add"},
		{"unknown subcommand", []string{"frobnicate"}, "unknown subcommand"},
		{"extra args", []string{"ls", "now"}, "takes no arguments"},
		{"bad flag", []string{"ls", "--nope"}, "bad flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := h.run("", tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, tt.want)
		})
	}

	_, out, _ := h.run("", "ls")
	assert.Contains(t, out, "Total 1", "usage errors must not touch the list")
}

func TestOutOfRangeHint(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, _, errOut := h.run("", "rm", "3")
	assert.Contains(t, errOut, "tada ls")
}

func TestTodoCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"ls"}, {"add", "x"}, {"rm", "1"}} {
		code, _, errOut := h.run("", args...)
		assert.Equal(t, 1, code, args)
		assert.Contains(t, errOut, "not logged in")
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	_, out, _ := h.run("", "status")
	assert.Contains(t, out, "not logged in")
	assert.Contains(t, out, "store: json "+h.store)
	assert.Contains(t, out, "todos: 0")

	h.login()
	_, _, _ = h.run("", "add", "a")
	code, out, _ := h.run("", "status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "logged in")
	assert.NotContains(t, out, "not logged in")
	assert.Contains(t, out, "todos: 1")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, _, _ = h.run("", "add", "kept")

	code, out, _ := h.run("", "logout")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "logged out")

	_, out, _ = h.run("", "status")
	assert.Contains(t, out, "not logged in")
	assert.Contains(t, out, "todos: 1", "logout keeps the list")
}

func TestHTMLSnapshot(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, _, _ = h.run("", "add", "<b>bold</b>")

	code, out, _ := h.run("", "html")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `id="todo-list"`)
	assert.Contains(t, out, `id="delete-0"`)
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
	assert.NotContains(t, out, "<b>bold</b>")
}

func TestCorruptStore(t *testing.T) {
	h := newHarness(t)
	content := `{"loggedIn":"true","todos":"[oops"}`
	require.NoError(t, os.WriteFile(h.store, []byte(content), 0o600))

	code, _, errOut := h.run("", "add", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Hint")

	code, out, _ := h.run("", "status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "todos: corrupt")

	raw, err := os.ReadFile(h.store)
	require.NoError(t, err)
	assert.Equal(t, content, string(raw), "corrupt data is left alone")
}

func TestSQLiteBackend(t *testing.T) {
	h := newHarness(t)
	h.store = filepath.Join(t.TempDir(), "storage.db")
	h.extra = []string{"--store", "sqlite"}

	h.login()
	code, _, errOut := h.run("", "add", "from sqlite")
	require.Equal(t, 0, code, errOut)

	_, out, _ := h.run("", "ls")
	assert.Contains(t, out, "from sqlite")
	_, out, _ = h.run("", "status")
	assert.Contains(t, out, "store: sqlite")
}

func TestInvalidConfigFromFlags(t *testing.T) {
	h := newHarness(t)
	h.extra = []string{"--store", "floppy"}
	code, _, errOut := h.run("", "status")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "floppy")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(assert.AnError))
}
