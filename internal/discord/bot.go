package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NgigiN/walletsync/internal/config"
	"github.com/NgigiN/walletsync/internal/expense"
	"github.com/NgigiN/walletsync/internal/ledger"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Ledger is what the bot needs from the sync engine.
type Ledger interface {
	Create(ctx context.Context, draft expense.Draft) (expense.Record, error)
	Delete(ctx context.Context, identity string) error
	Reconcile(ctx context.Context) (ledger.Result, error)
	Snapshot() []expense.Record
	Online() bool
	Subscribe() (<-chan ledger.Event, func())
}

type Bot struct {
	session   *discordgo.Session
	ledger    Ledger
	channelID string
	logger    *zap.Logger
	startTime time.Time

	health      *http.Server
	unsubscribe func()
}

func NewBot(cfg *config.Config, l Ledger, logger *zap.Logger) (*Bot, error) {
	if err := cfg.RequireDiscord(); err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := &Bot{
		session:   session,
		ledger:    l,
		channelID: cfg.DiscordChannelID,
		logger:    logger,
		startTime: time.Now(),
	}
	bot.health = &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           bot.healthMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	go func() {
		if err := b.health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("health server stopped", zap.Error(err))
		}
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	events, unsubscribe := b.ledger.Subscribe()
	b.unsubscribe = unsubscribe
	go b.announce(events)
	return nil
}

func (b *Bot) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.health.Shutdown(ctx); err != nil {
		b.logger.Warn("failed to stop health server", zap.Error(err))
	}
	if err := b.session.Close(); err != nil {
		b.logger.Warn("failed to close Discord session", zap.Error(err))
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return //bot's messages
	}
	if m.ChannelID != b.channelID {
		return //specific to the channel
	}

	reply := b.Reply(context.Background(), m.Content)
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.logger.Warn("failed to send reply", zap.Error(err))
	}
}

// announce posts a line to the channel after each reconcile pass.
func (b *Bot) announce(events <-chan ledger.Event) {
	for ev := range events {
		if ev.Kind != ledger.EventReconciled {
			continue
		}
		msg := fmt.Sprintf("🔄 Synced with server: %d expenses", ev.Expenses)
		if _, err := b.session.ChannelMessageSend(b.channelID, msg); err != nil {
			b.logger.Warn("failed to announce sync", zap.Error(err))
		}
	}
}

func (b *Bot) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		connected := b.session != nil && b.session.State != nil
		if !connected {
			status = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if !connected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(healthReport{
			Status:           status,
			Uptime:           time.Since(b.startTime).Round(time.Second).String(),
			DiscordConnected: connected,
			Online:           b.ledger.Online(),
			Pending:          countPending(b.ledger.Snapshot()),
			Timestamp:        time.Now().Format(time.RFC3339),
		})
	})
	return mux
}

type healthReport struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	DiscordConnected bool   `json:"discord_connected"`
	Online           bool   `json:"online"`
	Pending          int    `json:"pending"`
	Timestamp        string `json:"timestamp"`
}

func countPending(records []expense.Record) int {
	n := 0
	for _, r := range records {
		if r.IsPending() {
			n++
		}
	}
	return n
}

func isValidCategory(category string) bool {
	validCategories := map[string]bool{
		"food":        true,
		"travel":      true,
		"savings":     true,
		"church":      true,
		"investments": true,
	}
	return validCategories[strings.ToLower(category)]
}
