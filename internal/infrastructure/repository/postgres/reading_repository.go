package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/book-library/internal/core/domain"
)

const pgForeignKeyViolation = "23503"

type ReadingRepository struct {
	db *sql.DB
}

func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// SetStatus upserts the entry. Dates already recorded survive a later status change.
func (r *ReadingRepository) SetStatus(ctx context.Context, entry *domain.ReadingEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reading_status (user_id, book_id, status, started_at, finished_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, book_id) DO UPDATE
SET status = EXCLUDED.status,
	started_at = COALESCE(EXCLUDED.started_at, reading_status.started_at),
	finished_at = COALESCE(EXCLUDED.finished_at, reading_status.finished_at),
	updated_at = EXCLUDED.updated_at
`, entry.UserID, entry.BookID, string(entry.Status), entry.StartedAt, entry.FinishedAt, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.WrapError(domain.ErrBookNotFound, "set reading status", fmt.Errorf("id=%s", entry.BookID))
		}
		return fmt.Errorf("set reading status: %w", err)
	}
	return nil
}

func (r *ReadingRepository) ListBooksByStatus(ctx context.Context, userID string, status domain.ReadingStatus) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT b.id, b.filename, b.checksum, b.storage_path, b.file_size, b.title, b.author, b.format, b.page_count,
	b.category, b.confidence, b.status, b.error_message, b.created_at, b.updated_at
FROM reading_status rs
JOIN books b ON b.id = rs.book_id
WHERE rs.user_id = $1 AND rs.status = $2
ORDER BY rs.updated_at DESC
`, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list reading books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows, "list reading books")
}

func (r *ReadingRepository) CountByStatus(ctx context.Context, userID string) (map[domain.ReadingStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM reading_status
WHERE user_id = $1
GROUP BY status
`, userID)
	if err != nil {
		return nil, fmt.Errorf("count reading status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ReadingStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan reading count: %w", err)
		}
		out[domain.ReadingStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reading counts: %w", err)
	}
	return out, nil
}
