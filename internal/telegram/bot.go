package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-bot/internal/quiz"
	"quiz-bot/internal/session"
	"quiz-bot/internal/storage"
)

const (
	startQuizCmd = "START"
	answerPrefix = "ANS_"
)

// engine is the quiz state machine the bot drives on behalf of users.
type engine interface {
	Begin(ctx context.Context, userID int64, identity string) (quiz.Question, error)
	Answer(userID int64, option string) (session.Progress, error)
}

// resultSink is where completed runs are persisted (the results sheet).
type resultSink interface {
	AppendResultRow(ctx context.Context, writeRange string, values []string) error
}

type Bot struct {
	api    *tgbotapi.BotAPI
	s      sender
	engine engine
	sink   resultSink
	rec    storage.Recorder

	resultsChatID int64
	resultsRange  string

	webhookURL string
	port       int
}

func New(botToken string, eng engine, sink resultSink, rec storage.Recorder, resultsChatID int64, resultsRange, webhookURL string, port int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:           api,
		s:             botAPISender{api: api},
		engine:        eng,
		sink:          sink,
		rec:           rec,
		resultsChatID: resultsChatID,
		resultsRange:  resultsRange,
		webhookURL:    webhookURL,
		port:          port,
	}, nil
}

// Start consumes updates until the channel closes. With a webhook URL
// configured Telegram pushes updates to an embedded HTTP server;
// otherwise the bot long-polls.
func (b *Bot) Start(ctx context.Context) error {
	if b.webhookURL != "" {
		return b.startWebhook(ctx)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	b.consume(ctx, b.api.GetUpdatesChan(u))
	return nil
}

func (b *Bot) startWebhook(ctx context.Context) error {
	// The bot token doubles as the secret path, so only Telegram can
	// reach the update endpoint.
	path := "/" + b.api.Token
	wh, err := tgbotapi.NewWebhook(b.webhookURL + path)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}

	updates := b.api.ListenForWebhook(path)
	go func() {
		addr := fmt.Sprintf(":%d", b.port)
		log.Printf("webhook server listening on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("webhook server stopped: %v", err)
		}
	}()

	b.consume(ctx, updates)
	return nil
}

func (b *Bot) consume(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update.Message)
			continue
		}
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
