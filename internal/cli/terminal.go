package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"quizroom/internal/domain"
)

const (
	colorGreen = "\x1b[32m"
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

// terminalNotifier prints toasts on their own line.
type terminalNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func newTerminalNotifier(out io.Writer, color bool) *terminalNotifier {
	return &terminalNotifier{out: out, color: color}
}

func (n *terminalNotifier) Success(msg string) { n.print("✓", colorGreen, msg) }

func (n *terminalNotifier) Error(msg string) { n.print("✗", colorRed, msg) }

func (n *terminalNotifier) print(mark, color, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.color {
		fmt.Fprintf(n.out, "%s%s %s%s\n", color, mark, msg, colorReset)
		return
	}
	fmt.Fprintf(n.out, "%s %s\n", mark, msg)
}

// prompter reads input lines in the background so that a page can stop
// waiting for input when it is unmounted.
type prompter struct {
	in    io.Reader
	once  sync.Once
	lines chan string
}

func newPrompter(in io.Reader) *prompter {
	return &prompter{in: in, lines: make(chan string)}
}

func (p *prompter) start() {
	p.once.Do(func() {
		go func() {
			defer close(p.lines)
			scanner := bufio.NewScanner(p.in)
			for scanner.Scan() {
				p.lines <- strings.TrimSpace(scanner.Text())
			}
		}()
	})
}

// Lines exposes raw input, one trimmed line per value. The channel closes at EOF.
func (p *prompter) Lines() <-chan string {
	p.start()
	return p.lines
}

// Ask prints label and waits for one line. io.EOF means input is exhausted.
func (p *prompter) Ask(ctx context.Context, out io.Writer, label string) (string, error) {
	if label != "" {
		fmt.Fprintf(out, "%s: ", label)
	}
	select {
	case line, ok := <-p.Lines():
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func printRoom(out io.Writer, room domain.Room) {
	fmt.Fprintf(out, "Room %s (%s), owner %s <%s>\n", room.Name, room.Code, room.Owner.Name, room.Owner.Email)
	if len(room.Members) == 0 {
		fmt.Fprintln(out, "  no members yet")
		return
	}
	for _, m := range room.Members {
		if m.Email != "" {
			fmt.Fprintf(out, "  - %s <%s>\n", m.Name, m.Email)
			continue
		}
		fmt.Fprintf(out, "  - %s\n", m.Name)
	}
}

func printQuestions(out io.Writer, qs []domain.Question) {
	if len(qs) == 0 {
		fmt.Fprintln(out, "No questions yet.")
		return
	}
	for i, q := range qs {
		fmt.Fprintf(out, "%d. [%s] %s (%d pts, %ds, answer %s)\n", i+1, q.ID, q.Question, q.Point, q.Time, q.Correct)
	}
}

func printQuestion(out io.Writer, n int, q domain.Question) {
	fmt.Fprintf(out, "\nQuestion %d (%d pts, %ds)\n%s\n", n, q.Point, q.Time, q.Question)
	for _, key := range domain.AnswerKeys {
		text, _ := q.Answers.Get(key)
		fmt.Fprintf(out, "  %s) %s\n", key, text)
	}
}

func printLeaderboard(out io.Writer, lb domain.Leaderboard, me string) {
	fmt.Fprintf(out, "Leaderboard: %s\n", lb.RoomName)
	if len(lb.Entries) == 0 {
		fmt.Fprintln(out, "  nobody has scored yet")
		return
	}
	for i, e := range lb.Entries {
		marker := " "
		if me != "" && e.ID == me {
			marker = "*"
		}
		fmt.Fprintf(out, "%s%2d. %-20s %5d pts  %d right, %d wrong  [%s]\n", marker, i+1, e.Name, e.Points, e.TrueAnswers, e.FalseAnswers, e.ID)
	}
}
