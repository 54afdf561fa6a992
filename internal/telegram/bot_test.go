package telegram

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-bot/internal/quiz"
	"quiz-bot/internal/session"
	"quiz-bot/internal/storage"
)

type fakeSender struct {
	sent  []tgbotapi.MessageConfig
	edits []string
	acks  int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, v)
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, v.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := c.(tgbotapi.CallbackConfig); ok {
		f.acks++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeLoader struct {
	quiz quiz.Quiz
	err  error
}

func (f *fakeLoader) Load(_ context.Context) (quiz.Quiz, error) { return f.quiz, f.err }

type fakeSink struct {
	ranges []string
	rows   [][]string
	err    error
}

func (f *fakeSink) AppendResultRow(_ context.Context, writeRange string, values []string) error {
	if f.err != nil {
		return f.err
	}
	f.ranges = append(f.ranges, writeRange)
	f.rows = append(f.rows, values)
	return nil
}

type fakeRecorder struct{ records []storage.Record }

func (f *fakeRecorder) AppendResult(rec storage.Record) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) LoadResults() ([]storage.Record, error) { return f.records, nil }

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		{Text: "Capital of France?", Options: []string{"Paris", "Berlin", "Rome"}, Correct: "Paris"},
		{Text: "2+2?", Options: []string{"3", "4", "5"}, Correct: "4"},
	}
}

func newTestBot(loader session.Loader, sink resultSink, rec storage.Recorder) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	b := &Bot{
		s:             fs,
		engine:        session.NewEngine(loader, session.NewMemoryStore()),
		sink:          sink,
		rec:           rec,
		resultsChatID: 999,
		resultsRange:  "Опрос",
	}
	return b, fs
}

func startMessage(userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: "/start",
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 6},
		},
	}
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-id",
		From:    &tgbotapi.User{ID: userID, UserName: "tester"},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 100}},
		Data:    data,
	}
}

func TestStartCommand_SendsInviteKeyboard(t *testing.T) {
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, &fakeSink{}, nil)

	b.handleIncomingMessage(context.Background(), startMessage(42))

	if len(fs.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fs.sent))
	}
	if fs.sent[0].Text != "Привет! Готов пройти опрос?" {
		t.Fatalf("unexpected greeting: %q", fs.sent[0].Text)
	}
	kb, ok := fs.sent[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 1 {
		t.Fatalf("invite keyboard missing: %+v", fs.sent[0].ReplyMarkup)
	}
	if *kb.InlineKeyboard[0][0].CallbackData != startQuizCmd {
		t.Fatalf("unexpected callback data: %v", *kb.InlineKeyboard[0][0].CallbackData)
	}
}

func TestNonCommandMessage_Ignored(t *testing.T) {
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, &fakeSink{}, nil)

	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: "hello there",
	}
	b.handleIncomingMessage(context.Background(), msg)

	if len(fs.sent) != 0 {
		t.Fatalf("unexpected messages: %+v", fs.sent)
	}
}

func TestStartQuizCallback_PresentsFirstQuestion(t *testing.T) {
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, &fakeSink{}, nil)

	b.handleCallback(context.Background(), callback(42, startQuizCmd))

	if fs.acks != 1 {
		t.Fatalf("callback not acked")
	}
	if len(fs.edits) != 1 || fs.edits[0] != "Capital of France?" {
		t.Fatalf("first question not presented: %v", fs.edits)
	}
}

func TestStartQuizCallback_LoaderFailureReported(t *testing.T) {
	b, fs := newTestBot(&fakeLoader{err: errors.New("no sheet")}, &fakeSink{}, nil)

	b.handleCallback(context.Background(), callback(42, startQuizCmd))

	if len(fs.edits) != 0 {
		t.Fatalf("question presented despite load failure: %v", fs.edits)
	}
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0].Text, "Ошибка при загрузке опроса") {
		t.Fatalf("load failure not reported: %+v", fs.sent)
	}

	// The user can retry once the sheet is reachable again.
	b.engine = session.NewEngine(&fakeLoader{quiz: sampleQuiz()}, session.NewMemoryStore())
	b.handleCallback(context.Background(), callback(42, startQuizCmd))
	if len(fs.edits) != 1 {
		t.Fatalf("retry did not present a question: %v", fs.edits)
	}
}

func TestFullFlow_SummaryPersistedAndNotified(t *testing.T) {
	sink := &fakeSink{}
	rec := &fakeRecorder{}
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, sink, rec)
	ctx := context.Background()

	b.handleCallback(ctx, callback(42, startQuizCmd))
	b.handleCallback(ctx, callback(42, answerPrefix+"Paris"))
	b.handleCallback(ctx, callback(42, answerPrefix+"4"))

	if len(fs.edits) != 3 {
		t.Fatalf("expected question, question, summary edits, got %v", fs.edits)
	}
	if fs.edits[1] != "2+2?" {
		t.Fatalf("second question not presented: %q", fs.edits[1])
	}
	summary := fs.edits[2]
	if !strings.Contains(summary, "🎉 Вы ответили правильно на 2 из 2") {
		t.Fatalf("summary footer missing: %q", summary)
	}

	if len(sink.rows) != 1 || !reflect.DeepEqual(sink.rows[0], []string{"tester", "Paris", "4", "2/2"}) {
		t.Fatalf("unexpected persisted rows: %v", sink.rows)
	}
	if sink.ranges[0] != "Опрос" {
		t.Fatalf("unexpected write range: %q", sink.ranges[0])
	}

	if len(rec.records) != 1 || rec.records[0].UserID != 42 || rec.records[0].Score != 2 {
		t.Fatalf("unexpected audit records: %+v", rec.records)
	}

	if len(fs.sent) != 1 {
		t.Fatalf("expected one notification, got %+v", fs.sent)
	}
	if fs.sent[0].ChatID != 999 || fs.sent[0].Text != "Пользователь tester завершил опрос: 2/2" {
		t.Fatalf("unexpected notification: %+v", fs.sent[0])
	}
}

func TestAnswerCallback_NoSessionIsSilent(t *testing.T) {
	sink := &fakeSink{}
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, sink, nil)

	b.handleCallback(context.Background(), callback(42, answerPrefix+"Paris"))

	if len(fs.sent) != 0 || len(fs.edits) != 0 {
		t.Fatalf("no-session answer produced output: sent=%v edits=%v", fs.sent, fs.edits)
	}
	if fs.acks != 1 {
		t.Fatalf("callback not acked")
	}
}

func TestSinkFailure_SummaryStillDelivered(t *testing.T) {
	sink := &fakeSink{err: errors.New("append failed")}
	b, fs := newTestBot(&fakeLoader{quiz: sampleQuiz()}, sink, nil)
	ctx := context.Background()

	b.handleCallback(ctx, callback(42, startQuizCmd))
	b.handleCallback(ctx, callback(42, answerPrefix+"Berlin"))
	b.handleCallback(ctx, callback(42, answerPrefix+"5"))

	if len(fs.edits) != 3 || !strings.Contains(fs.edits[2], "🎉 Вы ответили правильно на 0 из 2") {
		t.Fatalf("summary missing despite sink failure: %v", fs.edits)
	}
	// Owner notification is independent of persistence.
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0].Text, "0/2") {
		t.Fatalf("notification missing: %+v", fs.sent)
	}

	// The finished run is gone; a stray duplicate answer is a no-op.
	edits := len(fs.edits)
	b.handleCallback(ctx, callback(42, answerPrefix+"5"))
	if len(fs.edits) != edits {
		t.Fatalf("stale answer produced output")
	}
}
