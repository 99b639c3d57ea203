package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/store"
)

// historyFunc lists recorded crossings fired in [from, to).
type historyFunc func(ctx context.Context, from, to time.Time) ([]store.Notification, error)

type stageJSON struct {
	Name   string    `json:"name"`
	Offset string    `json:"offset"`
	At     time.Time `json:"at"`
}

type viewJSON struct {
	Now              time.Time   `json:"now"`
	Sunrise          *time.Time  `json:"sunrise,omitempty"`
	Next             string      `json:"next,omitempty"`
	NextIndex        int         `json:"nextIndex"`
	RemainingSeconds int64       `json:"remainingSeconds"`
	Countdown        string      `json:"countdown"`
	Stages           []stageJSON `json:"stages"`
	Epoch            int         `json:"epoch"`
	Error            string      `json:"error,omitempty"`
}

func toViewJSON(v domain.View) viewJSON {
	out := viewJSON{
		Now:              v.Now,
		NextIndex:        v.NextIndex,
		RemainingSeconds: int64(v.Remaining / time.Second),
		Countdown:        domain.FormatCountdown(v.Remaining),
		Stages:           make([]stageJSON, 0, len(v.Stages)),
		Epoch:            v.Epoch,
		Error:            v.Err,
	}
	if v.HasSunrise {
		sr := v.Sunrise
		out.Sunrise = &sr
	}
	if v.Next != nil {
		out.Next = v.Next.Name
	}
	for _, s := range v.Stages {
		out.Stages = append(out.Stages, stageJSON{Name: s.Name, Offset: domain.FormatOffset(s.StageDefinition), At: s.At})
	}
	return out
}

type notificationJSON struct {
	Stage   string    `json:"stage"`
	StageAt time.Time `json:"stageAt"`
	FiredAt time.Time `json:"firedAt"`
	Error   string    `json:"error,omitempty"`
}

// dayBounds returns local midnight of day and of the day after.
func dayBounds(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from, from.AddDate(0, 0, 1)
}

// newMux serves liveness, metrics, the current view and the crossings fired
// on one day (?day=YYYY-MM-DD, today by default) as JSON.
func newMux(snapshot func() domain.View, history historyFunc, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", metrics)
	mux.HandleFunc("/view", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toViewJSON(snapshot()))
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		day := time.Now()
		if q := r.URL.Query().Get("day"); q != "" {
			d, err := time.ParseInLocation("2006-01-02", q, time.Local)
			if err != nil {
				http.Error(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = d
		}
		from, to := dayBounds(day.In(time.Local))
		list, err := history(r.Context(), from, to)
		if err != nil {
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		out := make([]notificationJSON, 0, len(list))
		for _, n := range list {
			out = append(out, notificationJSON{Stage: n.Stage, StageAt: n.StageAt, FiredAt: n.FiredAt, Error: n.Error})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	return mux
}
