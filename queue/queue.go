// Package queue is the downstream side of the pipeline: a client that
// publishes match records onto the SQLite visibility-timeout queue where
// the match-ingest worker picks them up.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/matchagent/dbopen"
	"github.com/hazyhaar/matchagent/match"
	"github.com/hazyhaar/matchagent/vtq"
)

// Client submits match records to the queue. One Client per run; it is not
// shared across runs.
type Client struct {
	db     *sql.DB
	q      *vtq.Q
	ownsDB bool
}

// Open opens (or creates) the queue database at path and returns a client
// bound to the named queue.
func Open(path, queueName string) (*Client, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}
	c := New(db, queueName)
	c.ownsDB = true
	if err := c.q.EnsureTable(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("queue: ensure table: %w", err)
	}
	return c, nil
}

// New wraps an already-open database. The caller keeps ownership of db and
// must have called EnsureTable (Open does both).
func New(db *sql.DB, queueName string) *Client {
	return &Client{
		db: db,
		q:  vtq.New(db, vtq.Options{Queue: queueName}),
	}
}

// Submit publishes one record and returns the job identifier. A failed
// submit affects only this record; callers decide whether to continue.
func (c *Client) Submit(ctx context.Context, rec match.Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("queue: encode record: %w", err)
	}
	id := uuid.NewString()
	if err := c.q.Publish(ctx, id, payload); err != nil {
		return "", fmt.Errorf("queue: publish %s vs %s: %w", rec.HomeTeam, rec.AwayTeam, err)
	}
	return id, nil
}

// CheckConnection reports whether the queue database is reachable and the
// jobs table exists.
func (c *Client) CheckConnection(ctx context.Context) bool {
	if err := c.db.PingContext(ctx); err != nil {
		return false
	}
	_, err := c.q.Len(ctx)
	return err == nil
}

// Queue exposes the underlying vtq handle for consumers (the drain loop).
func (c *Client) Queue() *vtq.Q {
	return c.q
}

// Close closes the database if this client opened it.
func (c *Client) Close() error {
	if c.ownsDB {
		return c.db.Close()
	}
	return nil
}
