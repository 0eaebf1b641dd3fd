package db

import "time"

type RelayLog struct {
	ID        string    `db:"id"`
	ChatID    int64     `db:"chat_id"`
	SourceURL string    `db:"source_url"`
	DirectURL string    `db:"direct_url"`
	Kind      string    `db:"kind"`
	Outcome   string    `db:"outcome"`
	SizeBytes int64     `db:"size_bytes"`
	Created   time.Time `db:"created"`
}
