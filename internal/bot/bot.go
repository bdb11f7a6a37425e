// Package bot runs the Telegram dialog side: client registration,
// appointment listing and staff onboarding.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mesto-barbershop/notifybot/internal/ics"
	"github.com/mesto-barbershop/notifybot/internal/notify"
	"github.com/mesto-barbershop/notifybot/internal/session"
	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

type Config struct {
	Shop notify.Shop
	// StaffCode is either a bcrypt hash or a plaintext secret that
	// unlocks staff registration.
	StaffCode string
	ShopSlug  string
}

type Bot struct {
	api      *tgbotapi.BotAPI
	render   *notify.Renderer
	clients  *storage.ClientsRepository
	staff    *storage.StaffRepository
	tracked  *storage.TrackedRepository
	sessions session.Store
	source   *yclients.Client
	cal      ics.Event
	logger   *slog.Logger
	cfg      Config
}

func New(api *tgbotapi.BotAPI, clients *storage.ClientsRepository, staff *storage.StaffRepository, tracked *storage.TrackedRepository, sessions session.Store, source *yclients.Client, logger *slog.Logger, cfg Config) *Bot {
	return &Bot{
		api:      api,
		render:   notify.NewRenderer(cfg.Shop),
		clients:  clients,
		staff:    staff,
		tracked:  tracked,
		sessions: sessions,
		source:   source,
		cal: ics.Event{
			ShopSlug: cfg.ShopSlug,
			Phone:    cfg.Shop.Phone,
			Address:  cfg.Shop.Address,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Run consumes long-poll updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.Contact != nil:
		b.handleContact(ctx, msg)
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			b.handleStart(msg)
		case "myrecords":
			b.handleMyRecords(ctx, msg.Chat.ID, msg.From.ID)
		case "staff":
			b.handleStaffCommand(ctx, msg)
		}
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) reply(chatID int64, text string, markup any) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyMarkup = markup
	if _, err := b.api.Send(m); err != nil {
		b.logger.Error("send reply", "err", err, "chat_id", chatID)
	}
}

func (b *Bot) answerCallback(cq *tgbotapi.CallbackQuery, text string, alert bool) {
	cb := tgbotapi.NewCallback(cq.ID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(cq.ID, text)
	}
	if _, err := b.api.Request(cb); err != nil {
		b.logger.Error("answer callback", "err", err)
	}
}
