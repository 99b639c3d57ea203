package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt value")
)

// StagesKey is the fixed settings key holding the serialized stage list.
const StagesKey = "stages"

// Repo defines storage operations for stage definitions and the notification log.
type Repo interface {
	LoadStages(ctx context.Context) ([]domain.StageDefinition, error)
	SaveStages(ctx context.Context, stages []domain.StageDefinition) error
	RecordNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, from, to time.Time) ([]Notification, error)
	Close() error
}
