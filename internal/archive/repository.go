package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/ascn-convert/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id           UUID PRIMARY KEY,
	direction    TEXT NOT NULL,
	input_sha256 TEXT NOT NULL,
	plies        INTEGER NOT NULL,
	result       TEXT NOT NULL,
	movetext     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
)`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository opens and pings Postgres and makes sure the table exists.
func OpenRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	r := NewRepository(db)
	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create conversions table: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// InsertConversion upserts one conversion log row.
func (r *Repository) InsertConversion(ctx context.Context, c *domain.Conversion) error {
	if r == nil || r.db == nil {
		return nil
	}
	if c == nil {
		return fmt.Errorf("nil conversion payload")
	}
	const q = `
		INSERT INTO conversions (
			id, direction, input_sha256, plies, result, movetext, created_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			direction=EXCLUDED.direction,
			input_sha256=EXCLUDED.input_sha256,
			plies=EXCLUDED.plies,
			result=EXCLUDED.result,
			movetext=EXCLUDED.movetext,
			created_at=EXCLUDED.created_at,
			duration_ms=EXCLUDED.duration_ms`

	duration := c.Duration.Milliseconds()
	if duration < 0 {
		duration = 0
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		string(c.Direction),
		c.InputSHA256,
		c.Plies,
		c.Result.String(),
		c.Movetext,
		c.CreatedAt,
		duration,
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

// RecentByDigest lists conversions of the same input, newest first.
func (r *Repository) RecentByDigest(ctx context.Context, digest string, limit int) ([]*domain.Conversion, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, direction, input_sha256, plies, result, movetext, created_at, duration_ms
		FROM conversions
		WHERE input_sha256 = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, digest, limit)
	if err != nil {
		return nil, fmt.Errorf("select conversions: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Conversion, 0, limit)
	for rows.Next() {
		var (
			c          domain.Conversion
			direction  string
			result     string
			durationMS sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &direction, &c.InputSHA256, &c.Plies, &result, &c.Movetext, &c.CreatedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		c.Direction = domain.Direction(direction)
		c.Result = domain.ParseOutcome(result)
		if durationMS.Valid {
			c.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
