package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/book-library/internal/core/domain"
)

const pgUniqueViolation = "23505"

const bookColumns = `id, filename, checksum, storage_path, file_size, title, author, format, page_count, category, confidence, status, error_message, created_at, updated_at`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO books (`+bookColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		book.ID, book.Filename, book.Checksum, book.StoragePath, book.FileSize,
		book.Title, book.Author, book.Format, book.PageCount, book.Category, book.Confidence,
		string(book.Status), book.Error, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.WrapError(domain.ErrDuplicate, "insert book", err)
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookColumns+`
FROM books
WHERE id = $1
`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookNotFound, "get book", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &book, nil
}

func (r *BookRepository) FindByChecksum(ctx context.Context, checksum string) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookColumns+`
FROM books
WHERE checksum = $1
`, checksum)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookNotFound, "find book by checksum", fmt.Errorf("checksum=%s", checksum))
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &book, nil
}

// Delete removes a book; its reading entries go with it.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return requireAffected(result, "delete book", id)
}

func (r *BookRepository) UpdateStatus(ctx context.Context, id string, status domain.BookStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE books
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update book status: %w", err)
	}
	return requireAffected(result, "update book status", id)
}

func (r *BookRepository) SaveCatalogEntry(ctx context.Context, id string, entry domain.CatalogEntry) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE books
SET title = $2, author = $3, format = $4, page_count = $5, category = $6, confidence = $7, updated_at = $8
WHERE id = $1
`,
		id, entry.Metadata.Title, entry.Metadata.Author, entry.Metadata.Format, entry.Metadata.PageCount,
		entry.Assignment.Category, entry.Assignment.Confidence, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save catalog entry: %w", err)
	}
	return requireAffected(result, "save catalog entry", id)
}

func (r *BookRepository) UpdateCategory(ctx context.Context, id, category string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE books
SET category = $2, updated_at = $3
WHERE id = $1
`, id, category, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update book category: %w", err)
	}
	return requireAffected(result, "update book category", id)
}

// ListByCategory returns the newest books first. An empty category lists the whole library.
func (r *BookRepository) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Book, error) {
	query := `
SELECT ` + bookColumns + `
FROM books
`
	args := []any{}
	if category != "" {
		query += "WHERE category = $1\n"
		args = append(args, category)
	}
	args = append(args, limit)
	query += fmt.Sprintf("ORDER BY created_at DESC\nLIMIT $%d", len(args))

	return r.queryBooks(ctx, "list books", query, args...)
}

// Search matches title or author case-insensitively as a substring.
func (r *BookRepository) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.queryBooks(ctx, "search books", `
SELECT `+bookColumns+`
FROM books
WHERE title ILIKE $1 OR author ILIKE $1
ORDER BY title
LIMIT $2
`, pattern, limit)
}

func (r *BookRepository) RandomBook(ctx context.Context, category string) (*domain.Book, error) {
	query := `
SELECT ` + bookColumns + `
FROM books
WHERE status = 'ready'
`
	args := []any{}
	if category != "" {
		query += "AND category = $1\n"
		args = append(args, category)
	}
	query += "ORDER BY random()\nLIMIT 1"

	book, err := scanBook(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookNotFound, "random book", fmt.Errorf("no books in category %q", category))
		}
		return nil, fmt.Errorf("random book: %w", err)
	}
	return &book, nil
}

// CountByCategory counts cataloged books only; uploads still in flight have no category yet.
func (r *BookRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT category, COUNT(*)
FROM books
WHERE status = 'ready'
GROUP BY category
`)
	if err != nil {
		return nil, fmt.Errorf("count books by category: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return out, nil
}

func (r *BookRepository) queryBooks(ctx context.Context, op, query string, args ...any) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return collectBooks(rows, op)
}

func collectBooks(rows *sql.Rows, op string) ([]domain.Book, error) {
	out := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

func scanBook(row rowScanner) (domain.Book, error) {
	var book domain.Book
	var status string
	err := row.Scan(
		&book.ID,
		&book.Filename,
		&book.Checksum,
		&book.StoragePath,
		&book.FileSize,
		&book.Title,
		&book.Author,
		&book.Format,
		&book.PageCount,
		&book.Category,
		&book.Confidence,
		&status,
		&book.Error,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return domain.Book{}, err
	}
	book.Status = domain.BookStatus(status)
	return book, nil
}

func requireAffected(result sql.Result, op, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBookNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
