package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func newPlayCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "play [CODE] [N]",
		Short: "Answer the questions of a running game",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rt.App(ctx)
			if err != nil {
				return err
			}
			code, err := roomCode(ctx, c, args, 0)
			if err != nil {
				return err
			}
			n := 1
			if len(args) == 2 {
				if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
					return fmt.Errorf("question number must be a positive integer, got %q", args[1])
				}
			}
			for {
				next, err := playRound(ctx, rt, c, code, n)
				if err != nil {
					return err
				}
				route := app.ParsePath(next)
				if route.Page != app.PageGame {
					return showStandings(ctx, rt, c, code)
				}
				n = route.Question
			}
		},
	}
}

// playRound runs question n and returns the path the round navigated to.
func playRound(ctx context.Context, rt *runtime, c *app.Client, code string, n int) (string, error) {
	nav := &lastPath{}
	if _, err := playRoundWith(ctx, rt, c, code, n, nav); err != nil {
		return "", err
	}
	return nav.Path(), nil
}

func playRoundWith(ctx context.Context, rt *runtime, c *app.Client, code string, n int, nav app.Navigator) (app.RoundResult, error) {
	hooks := app.RoundHooks{
		OnQuestion: func(n int, q domain.Question) {
			printQuestion(rt.out, n, q)
			fmt.Fprint(rt.out, "Your answer (a-d): ")
		},
		OnTick: func(left time.Duration) {
			if left > 0 && left <= 5*time.Second {
				fmt.Fprintf(rt.out, "\n%ds left: ", int(left.Seconds()))
			}
		},
	}
	res, err := c.Game(code, n, nav).Play(ctx, rt.in.Lines(), hooks)
	if err != nil {
		return res, err
	}
	fmt.Fprintln(rt.out)
	if res.Outcome.Message != "" {
		fmt.Fprintln(rt.out, res.Outcome.Message)
	}
	return res, nil
}

func showStandings(ctx context.Context, rt *runtime, c *app.Client, code string) error {
	view := c.Leaderboard(code, false, &lastPath{})
	if err := view.Open(ctx); err != nil {
		return err
	}
	sess, _ := c.Session().Load(ctx)
	printLeaderboard(rt.out, view.Standings(), sess.UserID)
	if rank, entry := view.Mine(ctx); rank > 0 {
		fmt.Fprintf(rt.out, "You placed #%d with %d points.\n", rank, entry.Points)
	}
	return nil
}
