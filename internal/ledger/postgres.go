package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres keeps the publication ledger in a PostgreSQL table. The UNIQUE
// constraint on link, not a pre-check, is what makes Record idempotent, so
// it stays correct even if a second writer ever shows up.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return p, nil
}

func (p *Postgres) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posted_news (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT UNIQUE NOT NULL,
		posted_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_posted_news_posted_at ON posted_news(posted_at);
	`
	_, err := p.db.Exec(schema)
	return err
}

// Has reports whether link already has a ledger record.
func (p *Postgres) Has(ctx context.Context, link string) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM posted_news WHERE link = $1`, link).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Record inserts a publication record. A link already present is left
// untouched.
func (p *Postgres) Record(ctx context.Context, id, title, link string) error {
	query := `
		INSERT INTO posted_news (id, title, link, posted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (link) DO NOTHING
	`
	if _, err := p.db.ExecContext(ctx, query, id, title, link); err != nil {
		return fmt.Errorf("record publication: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
