package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/requestcontext"
)

// PostgresStore is the durable verification store. The verification and its
// result share one row, so the reveal flip is a single-statement
// compare-and-swap on the revealed flag.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed verification store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the verifications table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS aid_verifications (
			id               UUID PRIMARY KEY,
			seq              BIGSERIAL NOT NULL,
			record_id        UUID NOT NULL,
			package_id       UUID NOT NULL,
			enc_eligibility  JSONB NOT NULL,
			enc_priority     JSONB NOT NULL,
			verified_at      TIMESTAMPTZ NOT NULL,
			eligibility      INT NOT NULL DEFAULT 0,
			priority         INT NOT NULL DEFAULT 0,
			revealed         BOOLEAN NOT NULL DEFAULT FALSE,
			revealed_at      TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("migrate aid_verifications: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, v *Verification) error {
	encEligibility, err := marshalHandle(v.EncryptedEligibility)
	if err != nil {
		return err
	}
	encPriority, err := marshalHandle(v.EncryptedPriority)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO aid_verifications
			(id, record_id, package_id, enc_eligibility, enc_priority, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		v.ID.String(), v.RecordID.String(), v.PackageID.String(),
		encEligibility, encPriority, v.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, vid id.VerificationID) (*Verification, *Result, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, record_id, package_id, enc_eligibility, enc_priority, verified_at,
		       eligibility, priority, revealed, revealed_at
		FROM aid_verifications WHERE id = $1`, vid.String())

	var (
		v                           Verification
		result                      Result
		rawID, rawRecord, rawPkg    string
		encEligibility, encPriority []byte
		revealedAt                  *time.Time
	)
	err := row.Scan(&rawID, &rawRecord, &rawPkg, &encEligibility, &encPriority,
		&v.VerifiedAt, &result.Eligibility, &result.Priority, &result.Revealed,
		&revealedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan verification: %w", err)
	}

	if v.ID, err = id.ParseVerificationID(rawID); err != nil {
		return nil, nil, err
	}
	if v.RecordID, err = id.ParseRecordID(rawRecord); err != nil {
		return nil, nil, err
	}
	if v.PackageID, err = id.ParsePackageID(rawPkg); err != nil {
		return nil, nil, err
	}
	if v.EncryptedEligibility, err = unmarshalHandle(encEligibility); err != nil {
		return nil, nil, err
	}
	if v.EncryptedPriority, err = unmarshalHandle(encPriority); err != nil {
		return nil, nil, err
	}
	if revealedAt != nil {
		result.RevealedAt = *revealedAt
	}
	return &v, &result, nil
}

func (s *PostgresStore) MarkRevealed(ctx context.Context, vid id.VerificationID, eligibility, priority int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE aid_verifications
		SET eligibility = $2, priority = $3, revealed = TRUE, revealed_at = $4
		WHERE id = $1 AND NOT revealed`,
		vid.String(), eligibility, priority, requestcontext.Now(ctx).UTC())
	if err != nil {
		return fmt.Errorf("mark verification revealed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing verification from a lost reveal race.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM aid_verifications WHERE id = $1)`,
			vid.String()).Scan(&exists); err != nil {
			return fmt.Errorf("check verification existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.VerificationID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM aid_verifications ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list verification ids: %w", err)
	}
	defer rows.Close()

	ids := []id.VerificationID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan verification id: %w", err)
		}
		vid, err := id.ParseVerificationID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, vid)
	}
	return ids, rows.Err()
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
