package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mahmutissiz-creator/libraTech/internal/models"
	"github.com/mahmutissiz-creator/libraTech/internal/repositories"
)

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrBookNotFound is returned when no book matches the given ISBN.
	ErrBookNotFound = errors.New("book not found")

	// ErrStudentNotFound is returned when no student matches the given student number.
	ErrStudentNotFound = errors.New("student not found")

	// ErrBookUnavailable is returned when the book is not AVAILABLE (already on
	// loan, or marked LOST).
	ErrBookUnavailable = errors.New("book is not available for loan")

	// ErrNoOpenLoan is returned when a return is attempted for a book with no
	// open transaction.
	ErrNoOpenLoan = errors.New("book does not have an open loan")

	// ErrInvalidDuration is returned when the requested loan duration is not a
	// positive number of days.
	ErrInvalidDuration = errors.New("loan duration must be a positive number of days")

	// ErrDuplicateISBN is returned when a book with the same ISBN already exists.
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")

	// ErrDuplicateStudentNumber is returned when a student with the same number
	// already exists.
	ErrDuplicateStudentNumber = errors.New("a student with this number is already registered")

	// ErrBookOnLoan is returned when deleting a book that has an open loan.
	ErrBookOnLoan = errors.New("book has an open loan and cannot be deleted")

	// ErrStudentHasOpenLoan is returned when deleting a student who has an open loan.
	ErrStudentHasOpenLoan = errors.New("student has an open loan and cannot be deleted")
)

// TxRunner is the subset of *gorm.DB the services need to run a closure inside
// a database transaction. Satisfied by *gorm.DB.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// ─── Service Interface ────────────────────────────────────────────────────────

// IssueResult is the outcome of a successful issue. Warning is non-empty when
// the student has borrowed the same book before; it is advisory only.
type IssueResult struct {
	Transaction *models.Transaction
	Warning     string
}

// ActiveLoan is an open transaction joined with its book and student.
type ActiveLoan struct {
	Transaction models.Transaction `json:"transaction"`
	Book        models.Book        `json:"book"`
	Student     models.Student     `json:"student"`
	Overdue     bool               `json:"overdue"`
}

// CirculationService implements the issue/return workflow and the loan reports.
type CirculationService interface {
	IssueBook(isbn, studentNumber string, durationDays int) (*IssueResult, error)
	ReturnBook(isbn string) (*models.Transaction, error)
	ListActiveLoans() ([]ActiveLoan, error)
	ListOverdueLoans() ([]ActiveLoan, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type circulationService struct {
	db          TxRunner
	bookRepo    repositories.BookRepository
	studentRepo repositories.StudentRepository
	txnRepo     repositories.TransactionRepository
}

// NewCirculationService wires up all dependencies and returns a CirculationService.
func NewCirculationService(
	db TxRunner,
	bookRepo repositories.BookRepository,
	studentRepo repositories.StudentRepository,
	txnRepo repositories.TransactionRepository,
) CirculationService {
	return &circulationService{
		db:          db,
		bookRepo:    bookRepo,
		studentRepo: studentRepo,
		txnRepo:     txnRepo,
	}
}

// ─── Issue ────────────────────────────────────────────────────────────────────

// IssueBook implements the transactional issue flow.
//
// Steps (all in one transaction):
//  1. Lock the book row by ISBN (FOR UPDATE) and check it is AVAILABLE.
//  2. Resolve the student by number.
//  3. Create the Transaction (dueDate = now + durationDays).
//  4. Append the book id to the student's reading history.
//  5. Flip the book status AVAILABLE → BORROWED with a conditional update.
//
// The status flip is deliberately the last write, and it is a compare-and-set:
// if another writer changed the status despite the row lock, the whole
// transaction rolls back. The partial unique index on open transactions
// (uniq_open_loan) backstops the guard at the store level.
func (s *circulationService) IssueBook(isbn, studentNumber string, durationDays int) (*IssueResult, error) {
	if durationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	var result *IssueResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		book, err := s.bookRepo.GetByISBNForUpdate(tx, isbn)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		student, err := s.studentRepo.GetByNumber(tx, studentNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		if book.Status != models.BookStatusAvailable {
			return ErrBookUnavailable
		}

		var warning string
		if student.HasRead(book.ID) {
			warning = fmt.Sprintf("%s has borrowed %q before.", student.Name, book.Title)
			log.Printf("[WARN] IssueBook: student %s re-borrowing book %s (%q)", student.StudentNumber, book.ISBN, book.Title)
		}

		now := time.Now().UTC()
		txn := &models.Transaction{
			BookID:     book.ID,
			StudentID:  student.ID,
			IssueDate:  now,
			DueDate:    now.AddDate(0, 0, durationDays),
			IsReturned: false,
		}
		if err := s.txnRepo.Create(tx, txn); err != nil {
			log.Printf("[ERROR] IssueBook: failed to create transaction for book %s: %v", book.ISBN, err)
			return err
		}

		if err := s.studentRepo.AppendHistory(tx, student.ID, book.ID); err != nil {
			log.Printf("[ERROR] IssueBook: failed to append history for student %s: %v", student.StudentNumber, err)
			return err
		}

		ok, err := s.bookRepo.UpdateStatusIf(tx, book.ID, models.BookStatusAvailable, models.BookStatusBorrowed)
		if err != nil {
			log.Printf("[ERROR] IssueBook: failed to mark book %s BORROWED: %v", book.ISBN, err)
			return err
		}
		if !ok {
			return ErrBookUnavailable
		}

		result = &IssueResult{Transaction: txn, Warning: warning}
		log.Printf("[INFO] IssueBook: book %s issued to student %s, due %s", book.ISBN, student.StudentNumber, txn.DueDate.Format("2006-01-02"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ─── Return ───────────────────────────────────────────────────────────────────

// ReturnBook implements the transactional return flow.
//
// Steps (all in one transaction):
//  1. Lock the book row by ISBN (FOR UPDATE).
//  2. Find the open transaction for the book.
//  3. Mark it returned with the return timestamp.
//  4. Flip the book status back to AVAILABLE (last write).
//
// The reading history is intentionally left untouched: it is a read log, not a
// "currently holds" list. If more than one open transaction exists the open-loan
// invariant was breached earlier; the earliest by issue date is closed.
func (s *circulationService) ReturnBook(isbn string) (*models.Transaction, error) {
	var returned *models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		book, err := s.bookRepo.GetByISBNForUpdate(tx, isbn)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		open, err := s.txnRepo.ListOpenByBook(tx, book.ID)
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return ErrNoOpenLoan
		}
		if len(open) > 1 {
			log.Printf("[WARN] ReturnBook: %d open loans found for book %s, closing the earliest", len(open), book.ISBN)
		}
		txn := open[0]

		now := time.Now().UTC()
		if err := s.txnRepo.MarkReturned(tx, txn.ID, now); err != nil {
			log.Printf("[ERROR] ReturnBook: failed to close transaction %s: %v", txn.ID, err)
			return err
		}

		if err := s.bookRepo.UpdateStatus(tx, book.ID, models.BookStatusAvailable); err != nil {
			log.Printf("[ERROR] ReturnBook: failed to mark book %s AVAILABLE: %v", book.ISBN, err)
			return err
		}

		txn.IsReturned = true
		txn.ReturnDate = &now
		returned = &txn
		log.Printf("[INFO] ReturnBook: book %s returned (transaction %s)", book.ISBN, txn.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// ListActiveLoans joins every open transaction with its book and student.
// Transactions whose book or student can no longer be resolved are skipped
// with a data-integrity warning; overdue is computed at read time.
func (s *circulationService) ListActiveLoans() ([]ActiveLoan, error) {
	txns, err := s.txnRepo.ListOpen(nil)
	if err != nil {
		return nil, err
	}
	loans := make([]ActiveLoan, 0, len(txns))
	if len(txns) == 0 {
		return loans, nil
	}

	books, err := s.bookRepo.List(nil)
	if err != nil {
		return nil, err
	}
	students, err := s.studentRepo.List(nil)
	if err != nil {
		return nil, err
	}

	booksByID := make(map[string]models.Book, len(books))
	for _, b := range books {
		booksByID[b.ID.String()] = b
	}
	studentsByID := make(map[string]models.Student, len(students))
	for _, st := range students {
		studentsByID[st.ID.String()] = st
	}

	now := time.Now().UTC()
	for _, t := range txns {
		book, okB := booksByID[t.BookID.String()]
		student, okS := studentsByID[t.StudentID.String()]
		if !okB || !okS {
			log.Printf("[WARN] ListActiveLoans: skipping transaction %s with dangling reference (book=%t student=%t)", t.ID, okB, okS)
			continue
		}
		loans = append(loans, ActiveLoan{
			Transaction: t,
			Book:        book,
			Student:     student,
			Overdue:     t.Overdue(now),
		})
	}
	return loans, nil
}

// ListOverdueLoans returns the subset of active loans past their due date.
func (s *circulationService) ListOverdueLoans() ([]ActiveLoan, error) {
	loans, err := s.ListActiveLoans()
	if err != nil {
		return nil, err
	}
	overdue := make([]ActiveLoan, 0, len(loans))
	for _, l := range loans {
		if l.Overdue {
			overdue = append(overdue, l)
		}
	}
	return overdue, nil
}
