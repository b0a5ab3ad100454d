package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/tx"
)

// PostgresStore appends events to an outbox table. A relay (the Kafka
// publisher or an external forwarder) ships rows downstream; the table is the
// durable buffer between the ledger and its observers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed event outbox.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the outbox table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS event_outbox (
			id         UUID PRIMARY KEY,
			kind       TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate event_outbox: %w", err)
	}
	return nil
}

// payload is the JSON structure shipped to observers.
type payload struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Timestamp      string `json:"timestamp"`
	RecordID       string `json:"record_id,omitempty"`
	PackageID      string `json:"package_id,omitempty"`
	VerificationID string `json:"verification_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	Actor          string `json:"actor,omitempty"`
	ClientIP       string `json:"client_ip,omitempty"`
	Device         string `json:"device,omitempty"`
}

func encodePayload(eventID uuid.UUID, event Event) ([]byte, error) {
	p := payload{
		ID:        eventID.String(),
		Kind:      string(event.Kind),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		ClientIP:  event.ClientIP,
		Device:    event.Device,
	}
	if !event.RecordID.IsNil() {
		p.RecordID = event.RecordID.String()
	}
	if !event.PackageID.IsNil() {
		p.PackageID = event.PackageID.String()
	}
	if !event.VerificationID.IsNil() {
		p.VerificationID = event.VerificationID.String()
	}
	if !event.RequestID.IsNil() {
		p.RequestID = event.RequestID.String()
	}
	if !event.Actor.IsNil() {
		p.Actor = event.Actor.String()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return b, nil
}

// Append inserts the event. When the context carries an open transaction the
// insert joins it, so the outbox row commits atomically with the state change
// that produced the event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()
	body, err := encodePayload(eventID, event)
	if err != nil {
		return err
	}

	const insert = `
		INSERT INTO event_outbox (id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4)`
	args := []any{eventID.String(), string(event.Kind), body, event.Timestamp}

	if dbtx, ok := tx.From(ctx); ok {
		_, err = dbtx.ExecContext(ctx, insert, args...)
	} else {
		_, err = s.db.ExecContext(ctx, insert, args...)
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByRecord returns decoded payloads for one record, oldest first. Used by
// operators inspecting an audit trail.
func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM event_outbox
		WHERE payload->>'record_id' = $1
		ORDER BY created_at`, recordID.String())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}
