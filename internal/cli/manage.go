package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// manageCommand opens the owner console for the room named by the first
// argument and hands it to run.
func manageCommand(rt *runtime, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, view *app.ManageView, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
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
			view := c.Manage(code, &lastPath{})
			if err := view.Open(ctx); err != nil {
				return err
			}
			return run(cmd, view, args)
		},
	}
}

func newManageCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Owner console for a room",
	}

	var q domain.Question
	add := manageCommand(rt, "add-question CODE", "Add a question", cobra.ExactArgs(1),
		func(cmd *cobra.Command, view *app.ManageView, args []string) error {
			return view.AddQuestion(cmd.Context(), q)
		})
	add.Flags().StringVar(&q.Question, "question", "", "question text")
	add.Flags().StringVar(&q.Answers.A, "answer-a", "", "answer a")
	add.Flags().StringVar(&q.Answers.B, "answer-b", "", "answer b")
	add.Flags().StringVar(&q.Answers.C, "answer-c", "", "answer c")
	add.Flags().StringVar(&q.Answers.D, "answer-d", "", "answer d")
	add.Flags().StringVar(&q.Correct, "correct", "", "correct answer key (a, b, c or d)")
	add.Flags().IntVar(&q.Point, "point", 100, "points for a correct answer")
	add.Flags().IntVar(&q.Time, "time", 20, "seconds to answer")

	cmd.AddCommand(
		manageCommand(rt, "show [CODE]", "Show members and questions", cobra.MaximumNArgs(1),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				room := view.Snapshot()
				printRoom(rt.out, room)
				printStatus(rt, room)
				printQuestions(rt.out, view.Questions())
				return nil
			}),
		add,
		manageCommand(rt, "delete-question CODE ID", "Delete a question", cobra.ExactArgs(2),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				return view.DeleteQuestion(cmd.Context(), args[1])
			}),
		manageCommand(rt, "ban CODE EMAIL", "Ban a member", cobra.ExactArgs(2),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				return view.BanUser(cmd.Context(), args[1])
			}),
		manageCommand(rt, "start [CODE]", "Start the game", cobra.MaximumNArgs(1),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				if err := view.StartGame(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "Follow the standings with: quizroom leaderboard --manage %s\n", view.Snapshot().Code)
				return nil
			}),
		manageCommand(rt, "end [CODE]", "End the game", cobra.MaximumNArgs(1),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				return view.EndGame(cmd.Context())
			}),
		manageCommand(rt, "delete [CODE]", "Delete the room", cobra.MaximumNArgs(1),
			func(cmd *cobra.Command, view *app.ManageView, args []string) error {
				return view.DeleteRoom(cmd.Context())
			}),
	)
	return cmd
}
