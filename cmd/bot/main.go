package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"quiz-bot/internal/config"
	"quiz-bot/internal/quiz"
	"quiz-bot/internal/scheduler"
	"quiz-bot/internal/session"
	"quiz-bot/internal/sheets"
	"quiz-bot/internal/storage"
	"quiz-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	sheetClient, err := sheets.New(ctx, cfg.GoogleClientEmail, cfg.GooglePrivateKey, cfg.SpreadsheetID)
	if err != nil {
		log.Fatalf("failed to init sheets client: %v", err)
	}
	log.Printf("sheets client ready for spreadsheet %s", cfg.SpreadsheetID)

	var loaderOpts []quiz.Option
	if cfg.ShuffleQuestions {
		loaderOpts = append(loaderOpts, quiz.WithShuffle())
	}
	loader := quiz.NewLoader(sheetClient, cfg.QuestionsRange, loaderOpts...)

	store := session.NewMemoryStore()
	engine := session.NewEngine(loader, store)

	if cfg.SessionTTL > 0 {
		sweeper := scheduler.NewSweeper(store, cfg.SessionTTL)
		if err := sweeper.Start(); err != nil {
			log.Printf("failed to start session sweeper: %v", err)
		} else {
			defer sweeper.Stop()
		}
	}

	var rec storage.Recorder
	if cfg.ResultsLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.ResultsLogPath)
		if err != nil {
			log.Printf("failed to init results recorder: %v", err)
		} else {
			rec = fr
		}
	}

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		engine,
		sheetClient,
		rec,
		cfg.ResultsChatID,
		cfg.ResultsRange,
		cfg.WebhookURL,
		cfg.Port,
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	log.Printf("bot started")
	if err := bot.Start(ctx); err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}
