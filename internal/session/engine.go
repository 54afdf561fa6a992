package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-bot/internal/quiz"
)

// ErrNoSession is returned by Answer when the user has no active run:
// never started, already finished, or swept for idleness.
var ErrNoSession = errors.New("no active session")

// Loader is the quiz-producing collaborator; Begin calls it fresh on
// every invocation, there is no caching.
type Loader interface {
	Load(ctx context.Context) (quiz.Quiz, error)
}

// ResultRecord is the finalized outcome of one completed run, destined
// for the results sheet. Answers are aligned to quiz order.
type ResultRecord struct {
	SessionID string
	Identity  string
	Answers   []string
	Score     int
	Total     int
}

// Row lays the record out as a spreadsheet row:
// identity, one answer per question, then a "score/total" tail cell.
func (r ResultRecord) Row() []string {
	row := make([]string, 0, len(r.Answers)+2)
	row = append(row, r.Identity)
	row = append(row, r.Answers...)
	row = append(row, fmt.Sprintf("%d/%d", r.Score, r.Total))
	return row
}

// Outcome bundles the persistable record with the user-facing summary.
type Outcome struct {
	Result  ResultRecord
	Summary string
}

// Progress is the result of recording one answer: either the next
// question to present or the final outcome, never both.
type Progress struct {
	Next *quiz.Question
	Done *Outcome
}

// Engine owns the per-user quiz state machine. All transitions for one
// user are serialized by a per-user mutex, so a duplicate delivery of
// the same answer event cannot record twice or advance twice.
type Engine struct {
	loader Loader
	store  Store
	locks  sync.Map // userID -> *sync.Mutex
}

func NewEngine(loader Loader, store Store) *Engine {
	return &Engine{loader: loader, store: store}
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Begin loads a fresh quiz and opens a session for the user, returning
// the first question. On loader failure no session is created and the
// user may simply retry later. An existing unfinished session is
// replaced, restarting the quiz from the top.
func (e *Engine) Begin(ctx context.Context, userID int64, identity string) (quiz.Question, error) {
	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	qz, err := e.loader.Load(ctx)
	if err != nil {
		return quiz.Question{}, fmt.Errorf("load quiz: %w", err)
	}
	if len(qz) == 0 {
		return quiz.Question{}, fmt.Errorf("load quiz: %w", quiz.ErrBadFormat)
	}

	now := time.Now()
	e.store.Put(userID, &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Identity:  identity,
		Quiz:      qz,
		Answers:   make(map[int]string),
		StartedAt: now,
		UpdatedAt: now,
	})
	return qz[0], nil
}

// Answer records the selected option for the user's current question and
// advances. With questions remaining it returns the next one; on the
// last answer it finalizes, removes the session unconditionally and
// returns the outcome. Without an active session it returns ErrNoSession
// and changes nothing, which also absorbs events arriving after
// finalization.
func (e *Engine) Answer(userID int64, option string) (Progress, error) {
	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := e.store.Get(userID)
	if !ok {
		return Progress{}, ErrNoSession
	}

	if s.Index < len(s.Quiz) {
		s.Answers[s.Index] = option
		s.Index++
	}
	s.UpdatedAt = time.Now()

	if s.Index < len(s.Quiz) {
		next := s.Quiz[s.Index]
		e.store.Put(userID, s)
		return Progress{Next: &next}, nil
	}

	// Teardown happens before the caller gets to persist anything, so a
	// storage failure downstream never resurrects a finished run.
	out := finalize(s)
	e.store.Remove(userID)
	return Progress{Done: &out}, nil
}

// finalize scores by exact, case-sensitive string equality between the
// recorded answer and the stored correct text. A question the user never
// answered compares as the empty string and cannot score.
func finalize(s *Session) Outcome {
	answers := make([]string, len(s.Quiz))
	score := 0
	var b strings.Builder
	for i, q := range s.Quiz {
		given := s.Answers[i]
		answers[i] = given
		if given == q.Correct {
			score++
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "❓ %s\n✅ %s\n📝 %s", q.Text, q.Correct, given)
	}
	fmt.Fprintf(&b, "\n\n🎉 Вы ответили правильно на %d из %d", score, len(s.Quiz))

	return Outcome{
		Result: ResultRecord{
			SessionID: s.ID,
			Identity:  s.Identity,
			Answers:   answers,
			Score:     score,
			Total:     len(s.Quiz),
		},
		Summary: b.String(),
	}
}
