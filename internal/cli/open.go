package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func newOpenCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "open [PATH]",
		Short: "Interactive client, starting at PATH (default /)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			start := app.PathRoot
			if len(args) == 1 {
				start = args[0]
			}
			router := app.NewRouter(c.Gate(), &pages{rt: rt, c: c})
			err = router.Run(ctx, start)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// pages renders each route on the terminal.
type pages struct {
	rt *runtime
	c  *app.Client
}

func (p *pages) Mount(ctx context.Context, route app.Route, nav app.Navigator) error {
	switch route.Page {
	case app.PageAuth:
		return p.auth(ctx, nav)
	case app.PageLogin:
		return p.login(ctx, nav)
	case app.PageSignup:
		return p.signup(ctx, nav)
	case app.PageGuest:
		return p.guest(ctx, nav)
	case app.PageHome:
		return p.home(ctx, nav)
	case app.PageRoom:
		return p.room(ctx, route.RoomCode, nav)
	case app.PageManageRoom:
		return p.manage(ctx, route.RoomCode, nav)
	case app.PageGame:
		return p.game(ctx, route, nav)
	case app.PageLeaderboard, app.PageLeaderboardManage:
		return p.leaderboard(ctx, route, nav)
	case app.PageLogout:
		return p.c.Logout(ctx, nav)
	}
	fmt.Fprintf(p.rt.out, "Nothing at %s.\n", route.Path)
	nav.Navigate(app.PathRoot)
	return nil
}

func (p *pages) ask(ctx context.Context, label string) (string, error) {
	return p.rt.in.Ask(ctx, p.rt.out, label)
}

// menu reads commands until handle navigates or input ends.
func (p *pages) menu(ctx context.Context, prompt string, handle func(cmd string, args []string) error) error {
	for {
		line, err := p.ask(ctx, prompt)
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		err = handle(strings.ToLower(fields[0]), fields[1:])
		switch {
		case errors.Is(err, errPageDone):
			return nil
		case err != nil:
			log.Debug().Err(err).Str("command", fields[0]).Msg("command failed")
		}
	}
}

// errPageDone ends a menu after the page navigated away.
var errPageDone = errors.New("page done")

func (p *pages) auth(ctx context.Context, nav app.Navigator) error {
	fmt.Fprintln(p.rt.out, "\n[l]ogin  [s]ignup  [g]uest  [q]uit")
	return p.menu(ctx, ">", func(cmd string, _ []string) error {
		switch cmd {
		case "l", "login":
			nav.Navigate(app.PathLogin)
		case "s", "signup":
			nav.Navigate(app.PathSignup)
		case "g", "guest":
			nav.Navigate(app.PathGuest)
		case "q", "quit":
			nav.Navigate(app.PathQuit)
		default:
			return nil
		}
		return errPageDone
	})
}

func (p *pages) login(ctx context.Context, nav app.Navigator) error {
	email, err := p.ask(ctx, "Email (blank to go back)")
	if err != nil || email == "" {
		nav.Navigate(app.PathAuth)
		return err
	}
	password, err := p.ask(ctx, "Password")
	if err != nil {
		return err
	}
	if err := p.c.Auth(nav).Login(ctx, email, password); err != nil {
		nav.Navigate(app.PathLogin)
	}
	return nil
}

func (p *pages) signup(ctx context.Context, nav app.Navigator) error {
	name, err := p.ask(ctx, "Name (blank to go back)")
	if err != nil || name == "" {
		nav.Navigate(app.PathAuth)
		return err
	}
	email, err := p.ask(ctx, "Email")
	if err != nil {
		return err
	}
	password, err := p.ask(ctx, "Password")
	if err != nil {
		return err
	}
	if err := p.c.Auth(nav).Signup(ctx, name, email, password); err != nil {
		nav.Navigate(app.PathSignup)
	}
	return nil
}

func (p *pages) guest(ctx context.Context, nav app.Navigator) error {
	code, err := p.ask(ctx, "Room code (blank to go back)")
	if err != nil || code == "" {
		nav.Navigate(app.PathAuth)
		return err
	}
	name, err := p.ask(ctx, "Name")
	if err != nil {
		return err
	}
	if err := p.c.Auth(nav).JoinGuest(ctx, name, code); err != nil {
		nav.Navigate(app.PathGuest)
	}
	return nil
}

func (p *pages) home(ctx context.Context, nav app.Navigator) error {
	if err := printWhoami(ctx, p.rt, p.c.Session()); err != nil {
		return err
	}
	fmt.Fprintln(p.rt.out, "join CODE | create NAME | resume | logout | quit")
	view := p.c.Home(nav)
	return p.menu(ctx, "home>", func(cmd string, args []string) error {
		switch cmd {
		case "join":
			if err := view.JoinRoom(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
		case "create":
			if err := view.CreateRoom(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
		case "resume":
			room, ok, err := p.c.Session().Room(ctx)
			if err != nil || !ok || room.Code == "" {
				p.c.Notifier().Error("No room to resume")
				return err
			}
			nav.Navigate(app.RoomPath(room.Code))
		case "logout":
			nav.Navigate(app.PathLogout)
		case "quit":
			nav.Navigate(app.PathQuit)
		default:
			return nil
		}
		return errPageDone
	})
}

func (p *pages) room(ctx context.Context, code string, nav app.Navigator) error {
	view := p.c.Room(code, nav)
	if err := view.Open(ctx); err != nil {
		nav.Navigate(app.PathRoot)
		return err
	}
	updates, stop := view.Updates()
	defer stop()
	go view.Run(ctx)
	go func() {
		for room := range updates {
			printRoom(p.rt.out, room)
		}
	}()

	help := "exit | home | quit"
	if view.IsOwner(ctx) {
		help = "manage | " + help
	}
	fmt.Fprintln(p.rt.out, help)
	return p.menu(ctx, "room>", func(cmd string, _ []string) error {
		switch cmd {
		case "manage":
			nav.Navigate(app.ManageRoomPath(code))
		case "exit":
			if err := view.Exit(ctx); err != nil {
				return err
			}
		case "home":
			nav.Navigate(app.PathRoot)
		case "quit":
			nav.Navigate(app.PathQuit)
		default:
			return nil
		}
		return errPageDone
	})
}

func (p *pages) manage(ctx context.Context, code string, nav app.Navigator) error {
	view := p.c.Manage(code, nav)
	if err := view.Open(ctx); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			fmt.Fprintln(p.rt.out, "Unauthorized")
		}
		nav.Navigate(app.RoomPath(code))
		return err
	}
	go view.Run(ctx)
	show := func() {
		printRoom(p.rt.out, view.Snapshot())
		printQuestions(p.rt.out, view.Questions())
	}
	show()
	fmt.Fprintln(p.rt.out, "show | add | del ID | ban EMAIL | start | end | delete | back")
	return p.menu(ctx, "manage>", func(cmd string, args []string) error {
		switch cmd {
		case "show":
			show()
		case "add":
			q, err := p.askQuestion(ctx)
			if err != nil {
				return err
			}
			return view.AddQuestion(ctx, q)
		case "del":
			return view.DeleteQuestion(ctx, strings.Join(args, " "))
		case "ban":
			return view.BanUser(ctx, strings.Join(args, " "))
		case "start":
			if err := view.StartGame(ctx); err != nil {
				return err
			}
			return errPageDone
		case "end":
			return view.EndGame(ctx)
		case "delete":
			if err := view.DeleteRoom(ctx); err != nil {
				return err
			}
			return errPageDone
		case "back":
			nav.Navigate(app.RoomPath(code))
			return errPageDone
		}
		return nil
	})
}

func (p *pages) askQuestion(ctx context.Context) (domain.Question, error) {
	var q domain.Question
	fields := []struct {
		label string
		dst   *string
	}{
		{"Question", &q.Question},
		{"Answer a", &q.Answers.A},
		{"Answer b", &q.Answers.B},
		{"Answer c", &q.Answers.C},
		{"Answer d", &q.Answers.D},
		{"Correct (a-d)", &q.Correct},
	}
	for _, f := range fields {
		v, err := p.ask(ctx, f.label)
		if err != nil {
			return q, err
		}
		*f.dst = v
	}
	q.Correct = strings.ToLower(q.Correct)
	for _, f := range []struct {
		label string
		dst   *int
	}{{"Points", &q.Point}, {"Seconds", &q.Time}} {
		n, err := p.askNumber(ctx, f.label)
		if err != nil {
			return q, err
		}
		*f.dst = n
	}
	return q, nil
}

// askNumber asks until the answer is a whole number.
func (p *pages) askNumber(ctx context.Context, label string) (int, error) {
	for {
		v, err := p.ask(ctx, label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(p.rt.out, "%q is not a whole number\n", v)
	}
}

func (p *pages) game(ctx context.Context, route app.Route, nav app.Navigator) error {
	_, err := playRoundWith(ctx, p.rt, p.c, route.RoomCode, route.Question, nav)
	return err
}

func (p *pages) leaderboard(ctx context.Context, route app.Route, nav app.Navigator) error {
	manage := route.Page == app.PageLeaderboardManage
	view := p.c.Leaderboard(route.RoomCode, manage, nav)
	if err := view.Open(ctx); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			fmt.Fprintln(p.rt.out, "Unauthorized Access")
		}
		nav.Navigate(app.PathRoot)
		return err
	}
	sess, _ := p.c.Session().Load(ctx)
	updates, stop := view.Updates()
	defer stop()
	go view.Run(ctx)
	go func() {
		for lb := range updates {
			fmt.Fprintln(p.rt.out)
			printLeaderboard(p.rt.out, lb, sess.UserID)
		}
	}()

	help := "home | quit"
	if manage {
		help = "ban ENTRY_ID | manage | " + help
	}
	fmt.Fprintln(p.rt.out, help)
	return p.menu(ctx, "leaderboard>", func(cmd string, args []string) error {
		switch cmd {
		case "ban":
			return view.BanEntry(ctx, strings.Join(args, " "))
		case "manage":
			nav.Navigate(app.ManageRoomPath(route.RoomCode))
		case "home":
			nav.Navigate(app.PathRoot)
		case "quit":
			nav.Navigate(app.PathQuit)
		default:
			return nil
		}
		return errPageDone
	})
}
