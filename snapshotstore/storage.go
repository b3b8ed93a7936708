package snapshotstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/deallocprof/deallocz"
	"github.com/coral-mesh/deallocprof/internal/duckdb"
	"github.com/coral-mesh/deallocprof/internal/errors"
)

// Store persists frozen profile snapshots to DuckDB.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Row is one persisted sample, as returned by QuerySnapshot.
type Row struct {
	SnapshotID       string
	CapturedAt       time.Time
	ProfileID        uint64
	StackHash        string
	StackAddrs       []int64
	Count            int64
	Sum              int64
	LifetimeNs       uint64
	StddevLifetimeNs uint64
	MinLifetimeNs    uint64
	MaxLifetimeNs    uint64
	CPUMatched       bool
	ThreadMatched    bool
}

// NewStore opens a store against db and ensures its schema exists.
func NewStore(db *sql.DB, logger zerolog.Logger) (*Store, error) {
	s := &Store{db: db, logger: logger.With().Str("component", "snapshot_store").Logger()}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("snapshotstore: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS lifetime_profile_samples (
			snapshot_id        TEXT      NOT NULL,
			captured_at        TIMESTAMP NOT NULL,
			profile_id         BIGINT    NOT NULL,
			stack_hash         TEXT      NOT NULL,
			stack_addrs        BIGINT[]  NOT NULL,
			sample_count       BIGINT    NOT NULL,
			byte_sum           BIGINT    NOT NULL,
			lifetime_ns        BIGINT    NOT NULL,
			stddev_lifetime_ns BIGINT    NOT NULL,
			min_lifetime_ns    BIGINT    NOT NULL,
			max_lifetime_ns    BIGINT    NOT NULL,
			cpu_matched        BOOLEAN   NOT NULL,
			thread_matched     BOOLEAN   NOT NULL,
			PRIMARY KEY (snapshot_id, profile_id, stack_hash)
		);
		CREATE INDEX IF NOT EXISTS idx_lifetime_profile_samples_snapshot
			ON lifetime_profile_samples (snapshot_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StoreProfile writes every sample in p to a new snapshot and returns the
// generated snapshot id. The whole snapshot commits as a single
// transaction, so a reader never observes half a profile.
func (s *Store) StoreProfile(ctx context.Context, p *deallocz.Profile) (string, error) {
	snapshotID := uuid.NewString()
	capturedAt := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer errors.DeferRollback(s.logger, tx)

	var storeErr error
	p.Iterate(func(sample deallocz.OutputSample) {
		if storeErr != nil {
			return
		}
		storeErr = insertSample(ctx, tx, snapshotID, capturedAt, sample)
	})
	if storeErr != nil {
		return "", fmt.Errorf("store sample: %w", storeErr)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info().Str("snapshot_id", snapshotID).Msg("stored profile snapshot")
	return snapshotID, nil
}

func insertSample(ctx context.Context, tx *sql.Tx, snapshotID string, capturedAt time.Time, sample deallocz.OutputSample) error {
	addrs := make([]int64, sample.Depth)
	for i := 0; i < sample.Depth; i++ {
		addrs[i] = int64(sample.Stack[i])
	}
	stackHash := fmt.Sprintf("%x", xxh3.Hash(addrsToBytes(addrs)))
	addrsStr := duckdb.Int64ArrayToString(addrs)

	// #nosec G202 - addrsStr is a formatted integer array, not user input.
	query := `
		INSERT INTO lifetime_profile_samples (
			snapshot_id, captured_at, profile_id, stack_hash, stack_addrs,
			sample_count, byte_sum, lifetime_ns, stddev_lifetime_ns,
			min_lifetime_ns, max_lifetime_ns, cpu_matched, thread_matched
		) VALUES (?, ?, ?, ?, ` + addrsStr + `, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (snapshot_id, profile_id, stack_hash) DO NOTHING
	`

	_, err := tx.ExecContext(ctx, query,
		snapshotID,
		capturedAt,
		sample.ProfileID,
		stackHash,
		sample.Count,
		sample.Sum,
		sample.LifetimeNs,
		sample.StddevLifetimeNs,
		sample.MinLifetimeNs,
		sample.MaxLifetimeNs,
		sample.CPUMatched,
		sample.ThreadMatched,
	)
	return err
}

func addrsToBytes(addrs []int64) []byte {
	buf := make([]byte, len(addrs)*8)
	for i, a := range addrs {
		u := uint64(a)
		for j := 0; j < 8; j++ {
			buf[i*8+j] = byte(u >> (8 * j))
		}
	}
	return buf
}

// QuerySnapshot retrieves every row stored under snapshotID.
func (s *Store) QuerySnapshot(ctx context.Context, snapshotID string) ([]Row, error) {
	query := `
		SELECT snapshot_id, captured_at, profile_id, stack_hash, stack_addrs,
			sample_count, byte_sum, lifetime_ns, stddev_lifetime_ns,
			min_lifetime_ns, max_lifetime_ns, cpu_matched, thread_matched
		FROM lifetime_profile_samples
		WHERE snapshot_id = ?
		ORDER BY profile_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer errors.DeferClose(s.logger, rows, "close snapshot query rows")

	var out []Row
	for rows.Next() {
		var r Row
		var addrsIface interface{}
		if err := rows.Scan(
			&r.SnapshotID, &r.CapturedAt, &r.ProfileID, &r.StackHash, &addrsIface,
			&r.Count, &r.Sum, &r.LifetimeNs, &r.StddevLifetimeNs,
			&r.MinLifetimeNs, &r.MaxLifetimeNs, &r.CPUMatched, &r.ThreadMatched,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		addrs, err := convertArrayToInt64(addrsIface)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to convert stack addrs")
		}
		r.StackAddrs = addrs
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func convertArrayToInt64(val interface{}) ([]int64, error) {
	if val == nil {
		return nil, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		if str, ok := val.(string); ok {
			return duckdb.ParseInt64Array(str)
		}
		return nil, fmt.Errorf("unexpected type for array: %T", val)
	}
	ids := make([]int64, len(arr))
	for i, elem := range arr {
		switch v := elem.(type) {
		case int64:
			ids[i] = v
		case int32:
			ids[i] = int64(v)
		case int:
			ids[i] = int64(v)
		case float64:
			ids[i] = int64(v)
		default:
			return nil, fmt.Errorf("unexpected array element type: %T", elem)
		}
	}
	return ids, nil
}
