package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// lastPath is a Navigator for one-shot commands: it remembers where the view
// wanted to go next.
type lastPath struct {
	mu   sync.Mutex
	path string
}

func (l *lastPath) Navigate(path string) {
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
}

func (l *lastPath) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// ask returns value, or prompts for it when empty.
func (rt *runtime) ask(ctx context.Context, value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return rt.in.Ask(ctx, rt.out, label)
}

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			if email, err = rt.ask(ctx, email, "Email"); err != nil {
				return err
			}
			if password, err = rt.ask(ctx, password, "Password"); err != nil {
				return err
			}
			return c.Auth(&lastPath{}).Login(ctx, email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newSignupCmd(rt *runtime) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			if name, err = rt.ask(ctx, name, "Name"); err != nil {
				return err
			}
			if email, err = rt.ask(ctx, email, "Email"); err != nil {
				return err
			}
			if password, err = rt.ask(ctx, password, "Password"); err != nil {
				return err
			}
			return c.Auth(&lastPath{}).Signup(ctx, name, email, password)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newGuestCmd(rt *runtime) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "guest CODE",
		Short: "Join a room as a guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			nav := &lastPath{}
			if err := c.Auth(nav).JoinGuest(ctx, name, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "Joined as guest, next: quizroom room watch %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to Guest)")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			err = c.Logout(cmd.Context(), nil)
			// The local session is gone either way; a server failure was already reported.
			var apiErr *domain.APIError
			if errors.As(err, &apiErr) {
				return nil
			}
			return err
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			return printWhoami(ctx, rt, c.Session())
		},
	}
}

func printWhoami(ctx context.Context, rt *runtime, session *app.SessionContext) error {
	if !session.Authenticated(ctx) {
		fmt.Fprintln(rt.out, "Not logged in.")
		return nil
	}
	sess, err := session.Load(ctx)
	if err != nil {
		return err
	}
	kind := "member"
	if sess.Guest {
		kind = "guest"
	}
	fmt.Fprintf(rt.out, "%s <%s> (%s, id %s)\n", sess.UserName, sess.UserEmail, kind, sess.UserID)
	if room, ok, err := session.Room(ctx); err == nil && ok {
		fmt.Fprintf(rt.out, "Last room: %s (%s)\n", room.Name, room.Code)
	}
	return nil
}
