package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BookStatus string

const (
	BookStatusAvailable BookStatus = "AVAILABLE"
	BookStatusBorrowed  BookStatus = "BORROWED"
	BookStatusLost      BookStatus = "LOST"
)

type Book struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Author    string     `gorm:"size:255;not null" json:"author"`
	ISBN      string     `gorm:"size:32;not null;uniqueIndex" json:"isbn"`
	Status    BookStatus `gorm:"type:book_status;not null" json:"status"`
	Category  string     `gorm:"size:128" json:"category"`
	AddedDate time.Time  `gorm:"not null" json:"added_date"`
}

type Student struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	StudentNumber string    `gorm:"size:32;not null;uniqueIndex" json:"student_number"`
	Email         string    `gorm:"size:255" json:"email"`
	Grade         string    `gorm:"size:16" json:"grade"`
	// ReadingHistory is an append-only log of book ids the student has borrowed.
	// Duplicates are meaningful (they drive the re-read warning) and must be kept.
	ReadingHistory pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"reading_history"`
}

// HasRead reports whether the given book id appears anywhere in the reading history.
func (s *Student) HasRead(bookID uuid.UUID) bool {
	id := bookID.String()
	for _, h := range s.ReadingHistory {
		if h == id {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"book_id"`
	StudentID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	IssueDate  time.Time  `gorm:"not null" json:"issue_date"`
	DueDate    time.Time  `gorm:"not null" json:"due_date"`
	IsReturned bool       `gorm:"not null;default:false;index" json:"is_returned"`
	ReturnDate *time.Time `json:"return_date"`
}

// Overdue reports whether the loan is still open past its due date.
func (t *Transaction) Overdue(now time.Time) bool {
	return !t.IsReturned && t.DueDate.Before(now)
}
