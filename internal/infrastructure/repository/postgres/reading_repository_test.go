package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/book-library/internal/core/domain"
)

func TestReadingRepositorySetStatusUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	started := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("ON CONFLICT \\(user_id, book_id\\) DO UPDATE").
		WithArgs("u-1", "b-1", string(domain.ReadingInProgress), &started, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewReadingRepository(db)
	err = repo.SetStatus(context.Background(), &domain.ReadingEntry{
		UserID:    "u-1",
		BookID:    "b-1",
		Status:    domain.ReadingInProgress,
		StartedAt: &started,
	})
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReadingRepositorySetStatusUnknownBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO reading_status").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err = NewReadingRepository(db).SetStatus(context.Background(), &domain.ReadingEntry{
		UserID: "u-1",
		BookID: "gone",
		Status: domain.ReadingFinished,
	})
	if !domain.IsKind(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestReadingRepositoryListBooksByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("JOIN books b").
		WithArgs("u-1", string(domain.ReadingInProgress)).
		WillReturnRows(bookRow(sqlmock.NewRows(bookColumnNames), "b-1", "Dune", "Frank Herbert", "Fiction"))

	books, err := NewReadingRepository(db).ListBooksByStatus(context.Background(), "u-1", domain.ReadingInProgress)
	if err != nil {
		t.Fatalf("ListBooksByStatus() error = %v", err)
	}
	if len(books) != 1 || books[0].ID != "b-1" {
		t.Fatalf("unexpected books %+v", books)
	}
}

func TestReadingRepositoryCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM reading_status").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("finished", int64(4)).
			AddRow("reading", int64(1)))

	counts, err := NewReadingRepository(db).CountByStatus(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[domain.ReadingFinished] != 4 || counts[domain.ReadingInProgress] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
