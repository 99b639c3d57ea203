package store

import (
	"database/sql"
	"time"
)

// Notification is one emitted stage crossing.
type Notification struct {
	ID        int64
	Stage     string
	SunriseAt time.Time // UTC
	StageAt   time.Time // UTC
	FiredAt   time.Time // UTC
	Error     string    // delivery error, empty on success
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
