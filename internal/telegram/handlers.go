package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-bot/internal/quiz"
	"quiz-bot/internal/session"
	"quiz-bot/internal/storage"
)

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !msg.IsCommand() || msg.Command() != "start" {
		return
	}

	log.Printf("/start from %d (@%s)", msg.From.ID, msg.From.UserName)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Начать опрос", startQuizCmd),
		),
	)
	out := tgbotapi.NewMessage(msg.Chat.ID, "Привет! Готов пройти опрос?")
	out.ReplyMarkup = kb
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to send greeting: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	// Ack first so the client stops showing the progress spinner even
	// when the transition below fails.
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to ack callback: %v", err)
	}

	switch {
	case cb.Data == startQuizCmd:
		b.handleStartQuiz(ctx, cb)
	case strings.HasPrefix(cb.Data, answerPrefix):
		b.handleAnswer(ctx, cb)
	}
}

func (b *Bot) handleStartQuiz(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	q, err := b.engine.Begin(ctx, cb.From.ID, identity(cb.From))
	if err != nil {
		log.Printf("failed to start quiz for %d: %v", cb.From.ID, err)
		b.sendMessage(cb.Message.Chat.ID, "Ошибка при загрузке опроса. Попробуйте позже.")
		return
	}
	b.presentQuestion(cb, q)
}

func (b *Bot) handleAnswer(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	option := strings.TrimPrefix(cb.Data, answerPrefix)

	prog, err := b.engine.Answer(cb.From.ID, option)
	if errors.Is(err, session.ErrNoSession) {
		// Stale button press: the quiz already finished or expired.
		log.Printf("answer without active session from %d", cb.From.ID)
		return
	}
	if err != nil {
		log.Printf("failed to record answer for %d: %v", cb.From.ID, err)
		return
	}

	if prog.Next != nil {
		b.presentQuestion(cb, *prog.Next)
		return
	}
	b.finishQuiz(ctx, cb, prog.Done)
}

// presentQuestion replaces the rolling quiz message with the given
// question and one button per option.
func (b *Bot) presentQuestion(cb *tgbotapi.CallbackQuery, q quiz.Question) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for _, o := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o, answerPrefix+o),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, q.Text, kb)
	if _, err := b.s.Send(edit); err != nil {
		log.Printf("failed to present question: %v", err)
	}
}

// finishQuiz delivers the summary, then persists and notifies
// best-effort. The session is already gone by the time we get here, so
// nothing below can block or replay the run.
func (b *Bot) finishQuiz(ctx context.Context, cb *tgbotapi.CallbackQuery, out *session.Outcome) {
	// Editing to plain text also clears the option keyboard.
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, out.Summary)
	if _, err := b.s.Send(edit); err != nil {
		log.Printf("failed to send summary: %v", err)
	}

	if b.sink != nil {
		if err := b.sink.AppendResultRow(ctx, b.resultsRange, out.Result.Row()); err != nil {
			log.Printf("failed to append result row for session %s: %v", out.Result.SessionID, err)
		}
	}

	if b.rec != nil {
		err := b.rec.AppendResult(storage.Record{
			Timestamp: time.Now(),
			SessionID: out.Result.SessionID,
			UserID:    cb.From.ID,
			Identity:  out.Result.Identity,
			Answers:   out.Result.Answers,
			Score:     out.Result.Score,
			Total:     out.Result.Total,
		})
		if err != nil {
			log.Printf("failed to record result locally: %v", err)
		}
	}

	if b.resultsChatID != 0 {
		b.sendMessage(b.resultsChatID, fmt.Sprintf(
			"Пользователь %s завершил опрос: %d/%d",
			out.Result.Identity, out.Result.Score, out.Result.Total))
	}
}

func identity(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strconv.FormatInt(u.ID, 10)
}
