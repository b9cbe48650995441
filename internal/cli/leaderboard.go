package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
)

func newLeaderboardCmd(rt *runtime) *cobra.Command {
	var (
		manage bool
		watch  bool
		ban    string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard [CODE]",
		Short: "Show the standings of a room",
		Args:  cobra.MaximumNArgs(1),
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
			view := c.Leaderboard(code, manage || ban != "", &lastPath{})
			if err := view.Open(ctx); err != nil {
				return err
			}
			if ban != "" {
				return view.BanEntry(ctx, ban)
			}
			sess, _ := c.Session().Load(ctx)
			if !watch {
				printLeaderboard(rt.out, view.Standings(), sess.UserID)
				return nil
			}
			return followLeaderboard(ctx, rt, view, sess.UserID)
		},
	}
	cmd.Flags().BoolVar(&manage, "manage", false, "owner view")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing until interrupted")
	cmd.Flags().StringVar(&ban, "ban", "", "ban the member behind this leaderboard entry id (owner only)")
	return cmd
}

func followLeaderboard(ctx context.Context, rt *runtime, view *app.LeaderboardView, me string) error {
	updates, stop := view.Updates()
	defer stop()
	go view.Run(ctx)
	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return nil
			}
			fmt.Fprintln(rt.out)
			printLeaderboard(rt.out, lb, me)
		case <-ctx.Done():
			return nil
		}
	}
}
