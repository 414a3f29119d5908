package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/ui"
	"github.com/Makepad-fr/tada/internal/view"
)

// ---------------------------------------------------
// Session subcommands
// ---------------------------------------------------

func newLoginCmd(rt *runtime) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in (prompts for missing credentials)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := rt.openAppTolerant()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("username") {
				if username, err = prompt(in, out, "Username: "); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("password") {
				if password, err = promptSecret(cmd.InOrStdin(), in, out, "Password: "); err != nil {
					return err
				}
			}
			if err := a.Login(username, password); err != nil {
				if apperr.Is(err, apperr.CodeInvalidCredentials) {
					return apperr.New(apperr.CodeInvalidCredentials, app.MsgLoginFailed)
				}
				return err
			}
			ui.OK(out, app.MsgLoginOK)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := rt.openAppTolerant()
			if err != nil {
				return err
			}
			if err := a.Logout(); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and store status",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, corrupt, err := rt.openAppTolerant()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := ui.Current()
			if a.LoggedIn() {
				fmt.Fprintln(out, t.Success.Render("logged in"))
			} else {
				fmt.Fprintln(out, t.Muted.Render("not logged in"))
				fmt.Fprintln(out, "Run: tada login")
			}
			fmt.Fprintf(out, "store: %s %s\n", rt.cfg.Store.Backend, rt.cfg.StorePath())
			if corrupt {
				fmt.Fprintln(out, t.Error.Render("todos: corrupt"))
			} else {
				fmt.Fprintf(out, "todos: %d\n", len(a.Todos()))
			}
			return nil
		},
	}
}

// ---------------------------------------------------
// Todo subcommands
// ---------------------------------------------------

// requireLogin opens the app and refuses to continue while logged out.
func requireLogin(rt *runtime) (*app.App, error) {
	a, err := rt.openApp()
	if err != nil {
		return nil, err
	}
	if !a.LoggedIn() {
		return nil, apperr.New(apperr.CodeInvalidCredentials, "not logged in. Run: tada login")
	}
	return a, nil
}

func newAddCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo (text can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return apperr.InvalidInput("usage: tada add <text...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireLogin(rt)
			if err != nil {
				return err
			}
			idx, err := a.AddTodo(strings.Join(args, " "))
			if apperr.Is(err, apperr.CodeRejected) {
				return apperr.InvalidInput("add: empty text")
			}
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d", idx+1))
			return nil
		},
	}
}

func newRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the todo at a 1-based index",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return apperr.InvalidInput("usage: tada rm <index>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return apperr.InvalidInput("rm: not a number: " + args[0])
			}
			a, err := requireLogin(rt)
			if err != nil {
				return err
			}
			count := len(a.Todos())
			if n < 1 || n > count {
				return apperr.OutOfRange(n, count)
			}
			if err := a.DeleteTodo(n - 1); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func newListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireLogin(rt)
			if err != nil {
				return err
			}
			width, _ := ui.TermSize()
			ui.Panel(cmd.OutOrStdout(), listLines(a.View(), width-8))
			return nil
		},
	}
}

func newHTMLCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "html",
		Short: "Print an HTML snapshot of the current view",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			return view.WriteHTML(cmd.OutOrStdout(), a.View())
		},
	}
}

// -------------- rendering helpers --------------

func listLines(m view.Model, maxWidth int) []string {
	t := ui.Current()
	lines := []string{
		fmt.Sprintf("%s  %s %d", t.Title.Render("Todos"), t.Accent.Render("Total"), len(m.Entries)),
		"",
	}
	if len(m.Entries) == 0 {
		lines = append(lines, t.Muted.Render("no items"))
	}
	for _, e := range m.Entries {
		idx := fmt.Sprintf("%2d.", e.Index+1)
		text := ui.Truncate(ui.Sanitize(e.Text), maxWidth-len(idx)-3)
		lines = append(lines, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), t.Bullet, text))
	}
	lines = append(lines, "", t.Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	return lines
}

// -------------- input helpers --------------

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return apperr.InvalidInput(fmt.Sprintf("%s takes no arguments", cmd.Name()))
	}
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads without echo when raw is a terminal, else falls back to
// a plain line read from buffered.
func promptSecret(raw io.Reader, buffered *bufio.Reader, out io.Writer, label string) (string, error) {
	if f, ok := raw.(*os.File); ok && ui.IsTTY(f) {
		fmt.Fprint(out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return prompt(buffered, out, label)
}
