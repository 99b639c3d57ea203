package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/internal/config"
	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/store"
	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
)

// sunriseSource builds the automatic source selected by SUNRISE_SOURCE.
// Without coordinates every automatic source reports ErrLocationUnavailable.
func sunriseSource(cfg config.Config) sunrise.Source {
	loc, ok, err := cfg.Location()
	if err != nil || !ok || cfg.SunriseSource == config.SourceManual {
		return sunrise.Unavailable{}
	}
	api := sunrise.NewAPIClient(cfg.SunriseAPIURL, loc, &http.Client{Timeout: cfg.FetchTimeout})
	solar := sunrise.Solar{Loc: loc}

	switch cfg.SunriseSource {
	case config.SourceAPI:
		return api
	case config.SourceSolar:
		return solar
	default:
		return sunrise.Chain{api, solar}
	}
}

// loadStages returns the persisted stages, or the defaults when none are
// saved or the saved value is unusable.
func loadStages(ctx context.Context, repo store.Repo, log *zap.Logger) []domain.StageDefinition {
	stages, err := repo.LoadStages(ctx)
	switch {
	case err == nil:
		return stages
	case errors.Is(err, store.ErrNotFound):
		log.Info("no saved stages, using defaults")
	default:
		log.Warn("saved stages unusable, using defaults", zap.Error(err))
	}
	return domain.DefaultStages()
}
