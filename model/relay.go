package model

import (
	"time"

	"github.com/truemediaorg/cobaltbot/database/db"
)

// Relay is the audit record of one finished request.
type Relay struct {
	ChatID    int64
	SourceURL string
	DirectURL string
	Kind      Kind
	Outcome   Outcome
	// SizeBytes is zero when the size probe could not tell.
	SizeBytes int64
}

func (r Relay) ToRelayLog(id string, created time.Time) db.RelayLog {
	return db.RelayLog{
		ID:        id,
		ChatID:    r.ChatID,
		SourceURL: r.SourceURL,
		DirectURL: r.DirectURL,
		Kind:      string(r.Kind),
		Outcome:   string(r.Outcome),
		SizeBytes: r.SizeBytes,
		Created:   created,
	}
}
