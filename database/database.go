package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/truemediaorg/cobaltbot/model"
)

type Database struct {
	connString string
	pool       *pgxpool.Pool
}

func NewDatabase(connString string) *Database {
	return &Database{
		connString: connString,
	}
}

func (d *Database) Connect(ctx context.Context) error {
	var err error
	d.pool, err = pgxpool.New(ctx, d.connString)
	if err != nil {
		return err
	}
	return d.pool.Ping(ctx)
}

func (d *Database) Disconnect() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// AddRelay appends one finished request to the relay log. The log is write-only;
// nothing reads it back to cache or deduplicate requests.
func (d *Database) AddRelay(ctx context.Context, relay model.Relay) error {
	row := relay.ToRelayLog(cuid.New(), time.Now().UTC()) // the DB stores timezones and assumes UTC
	// don't really care about the result, as long as this succeeds
	_, err := d.pool.Exec(ctx, `
	INSERT INTO relay_log (id, chat_id, source_url, direct_url, kind, outcome, size_bytes, created) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID,
		row.ChatID,
		row.SourceURL,
		row.DirectURL,
		row.Kind,
		row.Outcome,
		row.SizeBytes,
		row.Created,
	)
	if err != nil {
		return err
	}
	return nil
}

// NoopDatabase stands in when no Postgres URL is configured.
type NoopDatabase struct{}

func (NoopDatabase) AddRelay(context.Context, model.Relay) error {
	return nil
}
