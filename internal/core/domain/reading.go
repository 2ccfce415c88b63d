package domain

import "time"

type ReadingStatus string

const (
	ReadingWantToRead ReadingStatus = "want_to_read"
	ReadingInProgress ReadingStatus = "reading"
	ReadingFinished   ReadingStatus = "finished"
)

func (s ReadingStatus) Valid() bool {
	switch s {
	case ReadingWantToRead, ReadingInProgress, ReadingFinished:
		return true
	default:
		return false
	}
}

type ReadingEntry struct {
	BookID     string        `json:"book_id"`
	UserID     string        `json:"user_id"`
	Status     ReadingStatus `json:"status"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}
