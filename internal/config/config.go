package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	BotUsername string `env:"TELEGRAM_BOT_USERNAME"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// OpenAI
	OpenAIKey             string `env:"OPENAI_API_KEY,required"`
	OpenAIBaseURL         string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIChatModel       string `env:"OPENAI_CHAT_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITranscribeModel string `env:"OPENAI_TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	OpenAISpeechModel     string `env:"OPENAI_SPEECH_MODEL" envDefault:"tts-1"`
	OpenAISpeechVoice     string `env:"OPENAI_SPEECH_VOICE" envDefault:"nova"`
	TranscribeLanguage    string `env:"TRANSCRIBE_LANGUAGE" envDefault:"fr"`

	// Payment: Stripe
	StripeAPIKey        string `env:"STRIPE_API_KEY,required"`
	StripePriceID       string `env:"STRIPE_PRICE_ID,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required,notEmpty"`

	// Paywall
	FreeMessageThreshold int             `env:"FREE_MESSAGE_THRESHOLD" envDefault:"5"`
	HistoryWindow        int             `env:"HISTORY_WINDOW" envDefault:"6"`
	SubscriptionPrice    decimal.Decimal `env:"SUBSCRIPTION_PRICE" envDefault:"9.99"`
	SubscriptionCurrency string          `env:"SUBSCRIPTION_CURRENCY" envDefault:"€"`

	// Server
	Domain string `env:"DOMAIN,required"`
	Port   int    `env:"PORT" envDefault:"3000"`

	// Bot behavior
	Workers            int  `env:"BOT_WORKERS" envDefault:"4"`
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Telegram logging
	LogTelegramChatID    int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int   `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int   `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicSubscription int   `env:"LOG_TOPIC_SUBSCRIPTION"`
	LogTopicFeedback     int   `env:"LOG_TOPIC_FEEDBACK"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FreeMessageThreshold < 0 {
		return fmt.Errorf("FREE_MESSAGE_THRESHOLD must not be negative, got %d", c.FreeMessageThreshold)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("HISTORY_WINDOW must not be negative, got %d", c.HistoryWindow)
	}
	if c.Workers < 1 {
		return fmt.Errorf("BOT_WORKERS must be at least 1, got %d", c.Workers)
	}
	if !c.SubscriptionPrice.IsPositive() {
		return fmt.Errorf("SUBSCRIPTION_PRICE must be positive, got %s", c.SubscriptionPrice)
	}
	if _, err := url.Parse(c.BaseURL()); err != nil {
		return fmt.Errorf("DOMAIN: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// BaseURL is the public origin of the billing server. DOMAIN may be given
// with or without a scheme.
func (c *Config) BaseURL() string {
	d := strings.TrimRight(c.Domain, "/")
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}

func (c *Config) userURL(path string, telegramID int64) string {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(telegramID, 10))
	return c.BaseURL() + path + "?" + q.Encode()
}

// CheckoutURL is the link placed in the paywall prompt.
func (c *Config) CheckoutURL(telegramID int64) string {
	return c.userURL("/redirect_to_stripe", telegramID)
}

// SuccessURL keeps the Stripe placeholder unescaped so Stripe can substitute it.
func (c *Config) SuccessURL(telegramID int64) string {
	return c.userURL("/success", telegramID) + "&session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CancelURL(telegramID int64) string {
	return c.userURL("/cancel", telegramID)
}

func (c *Config) PortalURL(telegramID int64) string {
	return c.userURL("/create-customer-portal-session", telegramID)
}

// HomeURL opens the bot chat.
func (c *Config) HomeURL() string {
	return "https://t.me/" + c.BotUsername
}

// PriceLabel renders the subscription price for user-facing text.
func (c *Config) PriceLabel() string {
	return c.SubscriptionPrice.StringFixed(2) + c.SubscriptionCurrency
}
