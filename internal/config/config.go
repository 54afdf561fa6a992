package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Google Sheets
	SpreadsheetID     string `env:"GOOGLE_SHEET_ID,required"`
	GoogleClientEmail string `env:"GOOGLE_CLIENT_EMAIL,required"`
	GooglePrivateKey  string `env:"GOOGLE_PRIVATE_KEY,required"`
	QuestionsRange    string `env:"QUESTIONS_RANGE" envDefault:"Вопросы"`
	ResultsRange      string `env:"RESULTS_RANGE" envDefault:"Опрос"`

	// Where completion notifications go (owner chat); 0 disables them.
	ResultsChatID int64 `env:"RESULTS_CHAT_ID"`

	// Quiz behaviour
	ShuffleQuestions bool          `env:"SHUFFLE_QUESTIONS" envDefault:"false"`
	SessionTTL       time.Duration `env:"SESSION_TTL"` // 0 = sessions never expire

	// Storage
	ResultsLogPath string `env:"RESULTS_LOG_PATH" envDefault:"data/results.jsonl"`

	// Webhook delivery; long polling is used when WebhookURL is empty.
	WebhookURL string `env:"WEBHOOK_URL"`
	Port       int    `env:"PORT" envDefault:"8080"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
