package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizroom/internal/domain"
	pgloader "quizroom/internal/infra/postgres"
)

func newLibraryCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Reusable question sets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available question sets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := rt.App(ctx)
				if err != nil {
					return err
				}
				sets, err := rt.QuestionSets(ctx)
				if err != nil {
					return err
				}
				list, err := c.Library(sets).List(ctx)
				if err != nil {
					return err
				}
				for _, set := range list {
					fmt.Fprintf(rt.out, "%-16s %s\n", set.ID, set.Title)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "import CODE SET",
			Short: "Add every question of a set to a room you own",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := rt.App(ctx)
				if err != nil {
					return err
				}
				sets, err := rt.QuestionSets(ctx)
				if err != nil {
					return err
				}
				n, err := c.Library(sets).Import(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "%d question(s) added to %s\n", n, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "add FILE",
			Short: "Store a question set (YAML or JSON) in Postgres",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				set, err := readQuestionSet(args[0])
				if err != nil {
					return err
				}
				pool, err := rt.postgres(ctx)
				if err != nil {
					return err
				}
				if pool == nil {
					return errors.New("postgres url not configured")
				}
				if err := pgloader.NewQuestionSetLoader(pool).SaveQuestionSet(ctx, set); err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "Stored %q with %d question(s)\n", set.ID, len(set.Questions))
				return nil
			},
		},
	)
	return cmd
}

// questionSetFile is the on-disk shape of a set.
type questionSetFile struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	Questions []struct {
		Question string            `yaml:"question" json:"question"`
		Answers  map[string]string `yaml:"answers" json:"answers"`
		Correct  string            `yaml:"correct" json:"correct"`
		Point    int               `yaml:"point" json:"point"`
		Time     int               `yaml:"time" json:"time"`
	} `yaml:"questions" json:"questions"`
}

func readQuestionSet(path string) (domain.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	var raw questionSetFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw.ID == "" {
		raw.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	set := domain.QuestionSet{ID: raw.ID, Title: raw.Title}
	for i, rq := range raw.Questions {
		q := domain.Question{
			Question: rq.Question,
			Answers: domain.Answers{
				A: rq.Answers["a"],
				B: rq.Answers["b"],
				C: rq.Answers["c"],
				D: rq.Answers["d"],
			},
			Correct: strings.ToLower(strings.TrimSpace(rq.Correct)),
			Point:   rq.Point,
			Time:    rq.Time,
		}
		if err := q.Validate(); err != nil {
			return domain.QuestionSet{}, fmt.Errorf("%s question %d: %w", path, i+1, err)
		}
		set.Questions = append(set.Questions, q)
	}
	return set, nil
}

// builtinQuestionSets ships with the binary so the library works without Postgres.
func builtinQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"warmup": {
			ID:    "warmup",
			Title: "Warm-up round",
			Questions: []domain.Question{
				{
					Question: "What is 2 + 2?",
					Answers:  domain.Answers{A: "3", B: "4", C: "5", D: "22"},
					Correct:  "b",
					Point:    100,
					Time:     15,
				},
				{
					Question: "Which planet is closest to the sun?",
					Answers:  domain.Answers{A: "Venus", B: "Earth", C: "Mercury", D: "Mars"},
					Correct:  "c",
					Point:    100,
					Time:     20,
				},
			},
		},
		"capitals": {
			ID:    "capitals",
			Title: "World capitals",
			Questions: []domain.Question{
				{
					Question: "Capital of Japan?",
					Answers:  domain.Answers{A: "Kyoto", B: "Osaka", C: "Tokyo", D: "Nagoya"},
					Correct:  "c",
					Point:    100,
					Time:     20,
				},
				{
					Question: "Capital of Canada?",
					Answers:  domain.Answers{A: "Ottawa", B: "Toronto", C: "Montreal", D: "Vancouver"},
					Correct:  "a",
					Point:    100,
					Time:     20,
				},
				{
					Question: "Capital of Australia?",
					Answers:  domain.Answers{A: "Sydney", B: "Canberra", C: "Melbourne", D: "Perth"},
					Correct:  "b",
					Point:    200,
					Time:     20,
				},
			},
		},
	}
}
