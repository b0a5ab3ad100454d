package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

// PostgresStore is the durable record store. Insertion order comes from a
// bigserial column, so the ID index is derived from the same rows it indexes
// and cannot drift from the record set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed record store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the records table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS aid_records (
			id            UUID PRIMARY KEY,
			seq           BIGSERIAL NOT NULL,
			enc_identity  JSONB NOT NULL,
			enc_location  JSONB NOT NULL,
			enc_needs     JSONB NOT NULL,
			category      TEXT NOT NULL,
			location      TEXT NOT NULL,
			amount        BIGINT NOT NULL,
			needs         TEXT[] NOT NULL,
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			owner         UUID NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate aid_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *AidRecord) error {
	encIdentity, err := marshalHandle(rec.EncryptedIdentity)
	if err != nil {
		return err
	}
	encLocation, err := marshalHandle(rec.EncryptedLocation)
	if err != nil {
		return err
	}
	encNeeds, err := marshalHandle(rec.EncryptedNeeds)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO aid_records
			(id, enc_identity, enc_location, enc_needs, category, location, amount, needs, status, created_at, owner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID.String(), encIdentity, encLocation, encNeeds,
		rec.Category, rec.Location, rec.Amount, rec.Needs,
		string(rec.Status), rec.CreatedAt, rec.Owner.String(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*AidRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, enc_identity, enc_location, enc_needs, category, location, amount, needs, status, created_at, owner
		FROM aid_records WHERE id = $1`, recordID.String())
	return scanRecord(row)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, recordID id.RecordID, from, to Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE aid_records SET status = $3 WHERE id = $1 AND status = $2`,
		recordID.String(), string(from), string(to))
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing record from a failed CAS.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM aid_records WHERE id = $1)`,
			recordID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("check record existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.RecordID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM aid_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	defer rows.Close()

	ids := []id.RecordID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, recordID)
	}
	return ids, rows.Err()
}

func scanRecord(row pgx.Row) (*AidRecord, error) {
	var (
		rec                                AidRecord
		rawID, rawOwner, rawStatus         string
		encIdentity, encLocation, encNeeds []byte
	)
	err := row.Scan(&rawID, &encIdentity, &encLocation, &encNeeds,
		&rec.Category, &rec.Location, &rec.Amount, &rec.Needs,
		&rawStatus, &rec.CreatedAt, &rawOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if rec.ID, err = id.ParseRecordID(rawID); err != nil {
		return nil, err
	}
	if rec.Owner, err = id.ParseAgencyID(rawOwner); err != nil {
		return nil, err
	}
	if rec.Status, err = ParseStatus(rawStatus); err != nil {
		return nil, err
	}
	if rec.EncryptedIdentity, err = unmarshalHandle(encIdentity); err != nil {
		return nil, err
	}
	if rec.EncryptedLocation, err = unmarshalHandle(encLocation); err != nil {
		return nil, err
	}
	if rec.EncryptedNeeds, err = unmarshalHandle(encNeeds); err != nil {
		return nil, err
	}
	return &rec, nil
}

func marshalHandle(h oracle.Handle) ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal ciphertext handle: %w", err)
	}
	return b, nil
}

func unmarshalHandle(b []byte) (oracle.Handle, error) {
	var h oracle.Handle
	if err := json.Unmarshal(b, &h); err != nil {
		return oracle.Handle{}, fmt.Errorf("unmarshal ciphertext handle: %w", err)
	}
	return h, nil
}
