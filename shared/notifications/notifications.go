package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"dex-guard/shared/env"

	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

var (
	bot           *telego.Bot
	chatID        int64
	isInitialized bool
	initMu        sync.Mutex

	// Telegram allows roughly 20 messages per minute to the same chat.
	sendLimiter = rate.NewLimiter(rate.Every(3*time.Second), 5)
)

// InitTelegramBot wires up the alert channel. Missing credentials are not an
// error; alerts are simply disabled.
func InitTelegramBot() error {
	initMu.Lock()
	defer initMu.Unlock()

	if env.TelegramBotToken == "" || env.TelegramChatID == 0 {
		log.Println("INFO: Telegram credentials not configured, alerts disabled.")
		return nil
	}

	b, err := telego.NewBot(env.TelegramBotToken, telego.WithDiscardLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	if _, err := b.GetMe(context.Background()); err != nil {
		return fmt.Errorf("telegram getMe failed: %w", err)
	}

	bot = b
	chatID = env.TelegramChatID
	isInitialized = true
	log.Println("INFO: Telegram notifications initialized.")
	return nil
}

// Enabled reports whether alerts will actually go anywhere.
func Enabled() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return isInitialized
}

// SendTelegramMessage delivers one alert, rate limited. Failures are logged
// and swallowed; alerting must never take the service down.
func SendTelegramMessage(message string) {
	initMu.Lock()
	b, id, ok := bot, chatID, isInitialized
	initMu.Unlock()
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := sendLimiter.Wait(ctx); err != nil {
			log.Printf("WARN: Telegram rate limiter wait aborted: %v", err)
			return
		}
		_, err := b.SendMessage(ctx, &telego.SendMessageParams{
			ChatID:    telego.ChatID{ID: id},
			Text:      escapeMarkdown(message),
			ParseMode: telego.ModeMarkdownV2,
		})
		if err != nil {
			log.Printf("WARN: Failed to send Telegram message: %v", err)
		}
	}()
}

// escapeMarkdown escapes MarkdownV2 special characters, keeping * and `
// so callers can still bold and code-format.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
		"~", "\\~", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}
