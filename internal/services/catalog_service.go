package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahmutissiz-creator/libraTech/internal/models"
	"github.com/mahmutissiz-creator/libraTech/internal/repositories"
)

// CatalogService manages the book and student registries.
type CatalogService interface {
	AddBook(title, author, isbn, category string) (*models.Book, error)
	AddStudent(name, studentNumber, email, grade string) (*models.Student, error)
	ListBooks() ([]models.Book, error)
	ListStudents() ([]models.Student, error)
	DeleteBook(id uuid.UUID) error
	DeleteStudent(id uuid.UUID) error
}

type catalogService struct {
	db          TxRunner
	bookRepo    repositories.BookRepository
	studentRepo repositories.StudentRepository
	txnRepo     repositories.TransactionRepository
}

// NewCatalogService wires up all dependencies and returns a CatalogService.
func NewCatalogService(
	db TxRunner,
	bookRepo repositories.BookRepository,
	studentRepo repositories.StudentRepository,
	txnRepo repositories.TransactionRepository,
) CatalogService {
	return &catalogService{
		db:          db,
		bookRepo:    bookRepo,
		studentRepo: studentRepo,
		txnRepo:     txnRepo,
	}
}

// AddBook registers a new book as AVAILABLE. The ISBN must be unique; a unique
// index on the column backstops the check against concurrent inserts.
func (s *catalogService) AddBook(title, author, isbn, category string) (*models.Book, error) {
	if _, err := s.bookRepo.GetByISBN(nil, isbn); err == nil {
		return nil, ErrDuplicateISBN
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	book := &models.Book{
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Status:    models.BookStatusAvailable,
		Category:  category,
		AddedDate: time.Now().UTC(),
	}
	if err := s.bookRepo.Create(nil, book); err != nil {
		log.Printf("[ERROR] AddBook: failed to create book %s: %v", isbn, err)
		return nil, err
	}
	log.Printf("[INFO] AddBook: created book %q (isbn=%s)", book.Title, book.ISBN)
	return book, nil
}

// AddStudent registers a new student with an empty reading history. The student
// number must be unique.
func (s *catalogService) AddStudent(name, studentNumber, email, grade string) (*models.Student, error) {
	if _, err := s.studentRepo.GetByNumber(nil, studentNumber); err == nil {
		return nil, ErrDuplicateStudentNumber
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	student := &models.Student{
		Name:           name,
		StudentNumber:  studentNumber,
		Email:          email,
		Grade:          grade,
		ReadingHistory: []string{},
	}
	if err := s.studentRepo.Create(nil, student); err != nil {
		log.Printf("[ERROR] AddStudent: failed to create student %s: %v", studentNumber, err)
		return nil, err
	}
	log.Printf("[INFO] AddStudent: registered student %q (number=%s)", student.Name, student.StudentNumber)
	return student, nil
}

// ListBooks returns the full catalogue. Iteration order is store order; callers
// must not assume a sort.
func (s *catalogService) ListBooks() ([]models.Book, error) {
	return s.bookRepo.List(nil)
}

// ListStudents returns all registered students.
func (s *catalogService) ListStudents() ([]models.Student, error) {
	return s.studentRepo.List(nil)
}

// DeleteBook removes a book from the catalogue. Deletion is refused while the
// book has an open loan, so active transactions never dangle.
func (s *catalogService) DeleteBook(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.txnRepo.CountOpenByBook(tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBookOnLoan
		}
		if err := s.bookRepo.Delete(tx, id); err != nil {
			log.Printf("[ERROR] DeleteBook: failed to delete book %s: %v", id, err)
			return err
		}
		log.Printf("[INFO] DeleteBook: deleted book %s", id)
		return nil
	})
}

// DeleteStudent removes a student. Deletion is refused while the student has an
// open loan.
func (s *catalogService) DeleteStudent(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.txnRepo.CountOpenByStudent(tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrStudentHasOpenLoan
		}
		if err := s.studentRepo.Delete(tx, id); err != nil {
			log.Printf("[ERROR] DeleteStudent: failed to delete student %s: %v", id, err)
			return err
		}
		log.Printf("[INFO] DeleteStudent: deleted student %s", id)
		return nil
	})
}
