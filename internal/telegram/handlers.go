package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/scheduler"
)

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) handleStatus(chatID int64) {
	r.sendText(chatID, statusText(r.ctl.Snapshot()))
}

func (r *Router) handleStages(chatID int64) {
	r.sendText(chatID, stagesText(r.ctl.Snapshot().Defs))
}

func (r *Router) handleSunrise(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendText(chatID, "Usage: /sunrise HH:MM")
		return
	}
	at, err := r.ctl.SetManual(ctx, args)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTime) || errors.Is(err, domain.ErrEmptyTime) {
			r.sendText(chatID, scheduler.Describe(err))
			return
		}
		r.log.Error("manual sunrise failed", zap.Error(err))
		r.sendText(chatID, "Could not update sunrise.")
		return
	}
	r.sendText(chatID, "Sunrise set: "+domain.FormatClock(at))
}

func (r *Router) handleOffset(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		r.sendText(chatID, offsetUsage)
		return
	}
	// names may contain spaces; the offset is always the last field
	name := strings.Join(fields[:len(fields)-1], " ")
	m, s, err := domain.ParseOffset(fields[len(fields)-1])
	if err != nil {
		r.sendText(chatID, offsetUsage)
		return
	}
	stages, err := domain.WithOffset(r.ctl.Snapshot().Defs, name, m, s)
	if err != nil {
		r.sendText(chatID, "Unknown stage: "+name)
		return
	}
	if err := r.ctl.UpdateStages(ctx, stages); err != nil {
		r.log.Error("update stages failed", zap.Error(err))
		r.sendText(chatID, "Could not save stages.")
		return
	}
	r.sendText(chatID, "Stage updated.\n\n"+stagesText(stages))
}

// handleRefresh skips the lookup while a manual entry holds for today, since
// the scheduler would ignore its result anyway.
func (r *Router) handleRefresh(ctx context.Context, chatID int64) {
	if r.ctl.Snapshot().Manual {
		r.sendText(chatID, manualInEffectText)
		return
	}
	r.ctl.Refresh(ctx)
	r.sendText(chatID, "Looking up sunrise…")
}

func (r *Router) handleReset(ctx context.Context, chatID int64) {
	stages := domain.DefaultStages()
	if err := r.ctl.UpdateStages(ctx, stages); err != nil {
		r.log.Error("reset stages failed", zap.Error(err))
		r.sendText(chatID, "Could not save stages.")
		return
	}
	r.sendText(chatID, "Stages reset.\n\n"+stagesText(stages))
}
