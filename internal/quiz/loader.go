package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// ErrBadFormat reports a question table that cannot define a quiz:
// fewer than two rows (question texts + correct answers) or no usable
// question column.
var ErrBadFormat = errors.New("malformed question table")

// TableSource abstracts the spreadsheet read. Implementations must not
// mutate the underlying table.
type TableSource interface {
	FetchQuestionTable(ctx context.Context, readRange string) ([][]string, error)
}

type Loader struct {
	source    TableSource
	readRange string
	shuffle   bool
	rnd       *rand.Rand
}

type Option func(*Loader)

// WithShuffle randomizes question order and, independently, option
// order within each question on every load.
func WithShuffle() Option {
	return func(l *Loader) { l.shuffle = true }
}

// WithRand overrides the randomness source; used by tests for
// deterministic permutations.
func WithRand(rnd *rand.Rand) Option {
	return func(l *Loader) { l.rnd = rnd }
}

func NewLoader(source TableSource, readRange string, opts ...Option) *Loader {
	l := &Loader{source: source, readRange: readRange}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches the question table and normalizes it into a Quiz.
// Layout contract: row 1 holds question texts one column each, row 2 the
// correct answer per column, every following row contributes one option
// candidate per column. Empty cells contribute nothing.
func (l *Loader) Load(ctx context.Context) (Quiz, error) {
	grid, err := l.source.FetchQuestionTable(ctx, l.readRange)
	if err != nil {
		return nil, fmt.Errorf("fetch question table: %w", err)
	}
	q, err := Parse(grid)
	if err != nil {
		return nil, err
	}
	if l.shuffle {
		q = l.shuffled(q)
	}
	return q, nil
}

// Parse normalizes a raw 2-D text grid into a Quiz without shuffling.
func Parse(grid [][]string) (Quiz, error) {
	if len(grid) < 2 {
		return nil, fmt.Errorf("%w: need a header row and a correct-answer row, got %d row(s)", ErrBadFormat, len(grid))
	}
	header, correct := grid[0], grid[1]
	optionRows := grid[2:]

	quiz := make(Quiz, 0, len(header))
	for col, text := range header {
		if text == "" {
			continue
		}
		q := Question{Text: text, Correct: cell(correct, col)}
		for _, row := range optionRows {
			if o := cell(row, col); o != "" {
				q.Options = append(q.Options, o)
			}
		}
		quiz = append(quiz, q)
	}
	if len(quiz) == 0 {
		return nil, fmt.Errorf("%w: header row defines no questions", ErrBadFormat)
	}
	return quiz, nil
}

// cell tolerates ragged rows: a short row simply has no value for the
// trailing columns.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// shuffled returns a copy with question order and each question's option
// order independently permuted (Fisher-Yates via rand.Shuffle).
func (l *Loader) shuffled(quiz Quiz) Quiz {
	shuffleFn := rand.Shuffle
	if l.rnd != nil {
		shuffleFn = l.rnd.Shuffle
	}

	out := make(Quiz, len(quiz))
	copy(out, quiz)
	shuffleFn(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	for i, q := range out {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		shuffleFn(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		out[i].Options = opts
	}
	return out
}
