package supply

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

// PostgresStore is the durable package store. Packages are immutable, so the
// only statements are insert and read.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed package store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the packages table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS aid_packages (
			id              UUID PRIMARY KEY,
			seq             BIGSERIAL NOT NULL,
			enc_resources   JSONB NOT NULL,
			enc_quantities  JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			owner           UUID NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate aid_packages: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, pkg *AidPackage) error {
	encResources, err := marshalHandle(pkg.EncryptedResources)
	if err != nil {
		return err
	}
	encQuantities, err := marshalHandle(pkg.EncryptedQuantities)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO aid_packages (id, enc_resources, enc_quantities, created_at, owner)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		pkg.ID.String(), encResources, encQuantities, pkg.CreatedAt, pkg.Owner.String(),
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, packageID id.PackageID) (*AidPackage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, enc_resources, enc_quantities, created_at, owner
		FROM aid_packages WHERE id = $1`, packageID.String())

	var (
		pkg                         AidPackage
		rawID, rawOwner             string
		encResources, encQuantities []byte
	)
	err := row.Scan(&rawID, &encResources, &encQuantities, &pkg.CreatedAt, &rawOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan package: %w", err)
	}

	if pkg.ID, err = id.ParsePackageID(rawID); err != nil {
		return nil, err
	}
	if pkg.Owner, err = id.ParseAgencyID(rawOwner); err != nil {
		return nil, err
	}
	if pkg.EncryptedResources, err = unmarshalHandle(encResources); err != nil {
		return nil, err
	}
	if pkg.EncryptedQuantities, err = unmarshalHandle(encQuantities); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.PackageID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM aid_packages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list package ids: %w", err)
	}
	defer rows.Close()

	ids := []id.PackageID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan package id: %w", err)
		}
		packageID, err := id.ParsePackageID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, packageID)
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
