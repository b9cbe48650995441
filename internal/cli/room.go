package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

var errNoRoom = errors.New("room code required (no room in the current session)")

// roomCode returns args[i], or the code of the room stored in the session.
func roomCode(ctx context.Context, c *app.Client, args []string, i int) (string, error) {
	if len(args) > i && strings.TrimSpace(args[i]) != "" {
		return strings.TrimSpace(args[i]), nil
	}
	room, ok, err := c.Session().Room(ctx)
	if err != nil {
		return "", err
	}
	if !ok || room.Code == "" {
		return "", errNoRoom
	}
	return room.Code, nil
}

func newRoomCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Create, join, watch or leave a room",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a room you own",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := rt.App(ctx)
				if err != nil {
					return err
				}
				if err := c.Home(&lastPath{}).CreateRoom(ctx, args[0]); err != nil {
					return err
				}
				room, _, _ := c.Session().Room(ctx)
				fmt.Fprintf(rt.out, "Room %q created, code %s\n", room.Name, room.Code)
				return nil
			},
		},
		&cobra.Command{
			Use:   "join CODE",
			Short: "Join a room by code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := rt.App(ctx)
				if err != nil {
					return err
				}
				if err := c.Home(&lastPath{}).JoinRoom(ctx, args[0]); err != nil {
					return err
				}
				room, _, _ := c.Session().Room(ctx)
				printRoom(rt.out, room)
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch [CODE]",
			Short: "Follow the member list until the game starts",
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
				return watchRoom(ctx, rt, c, code)
			},
		},
		&cobra.Command{
			Use:   "exit [CODE]",
			Short: "Leave a room",
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
				return c.Room(code, &lastPath{}).Exit(ctx)
			},
		},
	)
	return cmd
}

// watchRoom prints the room on every change and returns once the game starts.
func watchRoom(ctx context.Context, rt *runtime, c *app.Client, code string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := make(chan string, 1)
	view := c.Room(code, app.NavigatorFunc(func(path string) {
		select {
		case started <- path:
		default:
		}
		cancel()
	}))
	if err := view.Open(ctx); err != nil {
		return err
	}
	if view.GameStarted() {
		fmt.Fprintf(rt.out, "Game already running, join with: quizroom play %s\n", code)
		return nil
	}
	updates, stop := view.Updates()
	defer stop()
	go view.Run(ctx)

	for {
		select {
		case room, ok := <-updates:
			if !ok {
				return nil
			}
			printRoom(rt.out, room)
		case <-ctx.Done():
			select {
			case <-started:
				fmt.Fprintf(rt.out, "Game started, join with: quizroom play %s\n", code)
				return nil
			default:
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

func printStatus(rt *runtime, room domain.Room) {
	state := "waiting"
	if room.GameStarted {
		state = "in game"
	}
	fmt.Fprintf(rt.out, "Status: %s\n", state)
}
