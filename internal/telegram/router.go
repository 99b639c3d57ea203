package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
)

// Controller is the part of the scheduler the bot drives.
type Controller interface {
	Snapshot() domain.View
	SetManual(ctx context.Context, text string) (time.Time, error)
	UpdateStages(ctx context.Context, stages []domain.StageDefinition) error
	Refresh(ctx context.Context)
}

// botAPI is the subset of *tgbotapi.BotAPI the router uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Router wires Telegram updates to handlers and announces reached stages.
type Router struct {
	bot    botAPI
	log    *zap.Logger
	ctl    Controller
	chatID int64 // 0 accepts every chat and disables notifications
	sound  []byte
}

// NewRouter creates a new Telegram router. sound may be nil to send text only.
func NewRouter(bot botAPI, log *zap.Logger, ctl Controller, chatID int64, sound []byte) *Router {
	return &Router{
		bot:    bot,
		log:    log,
		ctl:    ctl,
		chatID: chatID,
		sound:  sound,
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	if r.chatID != 0 && chatID != r.chatID {
		r.log.Debug("ignoring foreign chat", zap.Int64("chatID", chatID))
		return
	}

	cmd, args := splitCommand(msg.Text)
	switch cmd {
	case "/start":
		r.sendText(chatID, startText)
	case "/status":
		r.handleStatus(chatID)
	case "/stages":
		r.handleStages(chatID)
	case "/sunrise":
		r.handleSunrise(ctx, chatID, args)
	case "/offset":
		r.handleOffset(ctx, chatID, args)
	case "/reset":
		r.handleReset(ctx, chatID)
	case "/refresh":
		r.handleRefresh(ctx, chatID)
	default:
		// bare "HH:MM" is a manual sunrise entry
		if cmd != "" && !strings.HasPrefix(cmd, "/") {
			r.handleSunrise(ctx, chatID, strings.TrimSpace(msg.Text))
		}
	}
}

// splitCommand returns the command word (without any @botname suffix) and the rest.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	cmd, args, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 && strings.HasPrefix(cmd, "/") {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(args)
}

// Name implements scheduler.Notifier.
func (r *Router) Name() string { return "telegram" }

// Notify sends the stage announcement and the notification sound to the
// configured chat.
func (r *Router) Notify(_ context.Context, st domain.DerivedStage) error {
	if r.chatID == 0 {
		return nil
	}
	if _, err := r.bot.Send(tgbotapi.NewMessage(r.chatID, reachedText(st))); err != nil {
		return err
	}
	if len(r.sound) == 0 {
		return nil
	}
	voice := tgbotapi.NewAudio(r.chatID, tgbotapi.FileBytes{Name: "notify.wav", Bytes: r.sound})
	_, err := r.bot.Send(voice)
	return err
}
