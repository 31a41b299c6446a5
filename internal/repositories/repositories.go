package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mahmutissiz-creator/libraTech/internal/models"
)

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	List(db *gorm.DB) ([]models.Book, error)
	GetByISBN(db *gorm.DB, isbn string) (*models.Book, error)
	GetByISBNForUpdate(db *gorm.DB, isbn string) (*models.Book, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status models.BookStatus) error
	UpdateStatusIf(db *gorm.DB, id uuid.UUID, from, to models.BookStatus) (bool, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}

type StudentRepository interface {
	Create(db *gorm.DB, student *models.Student) error
	List(db *gorm.DB) ([]models.Student, error)
	GetByNumber(db *gorm.DB, studentNumber string) (*models.Student, error)
	AppendHistory(db *gorm.DB, id, bookID uuid.UUID) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

type TransactionRepository interface {
	Create(db *gorm.DB, txn *models.Transaction) error
	ListOpen(db *gorm.DB) ([]models.Transaction, error)
	ListOpenByBook(db *gorm.DB, bookID uuid.UUID) ([]models.Transaction, error)
	MarkReturned(db *gorm.DB, id uuid.UUID, returnedAt time.Time) error
	CountOpenByBook(db *gorm.DB, bookID uuid.UUID) (int64, error)
	CountOpenByStudent(db *gorm.DB, studentID uuid.UUID) (int64, error)
}

// concrete implementations

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) List(db *gorm.DB) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) GetByISBN(db *gorm.DB, isbn string) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "isbn = ?", isbn).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) GetByISBNForUpdate(db *gorm.DB, isbn string) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&book, "isbn = ?", isbn).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status models.BookStatus) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Book{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// UpdateStatusIf flips the status only when the current value matches `from`.
// Returns false when no row was updated, i.e. the guard failed.
func (r *bookRepository) UpdateStatusIf(db *gorm.DB, id uuid.UUID, from, to models.BookStatus) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Book{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Book{}, "id = ?", id).Error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(db *gorm.DB, student *models.Student) error {
	if db == nil {
		db = r.db
	}
	return db.Create(student).Error
}

func (r *studentRepository) List(db *gorm.DB) ([]models.Student, error) {
	if db == nil {
		db = r.db
	}
	var students []models.Student
	if err := db.Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) GetByNumber(db *gorm.DB, studentNumber string) (*models.Student, error) {
	if db == nil {
		db = r.db
	}
	var student models.Student
	if err := db.First(&student, "student_number = ?", studentNumber).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// AppendHistory appends the book id server-side so concurrent appends cannot
// overwrite each other with a stale array.
func (r *studentRepository) AppendHistory(db *gorm.DB, id, bookID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Student{}).
		Where("id = ?", id).
		UpdateColumn("reading_history", gorm.Expr("array_append(reading_history, ?)", bookID.String())).
		Error
}

func (r *studentRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Student{}, "id = ?", id).Error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(db *gorm.DB, txn *models.Transaction) error {
	if db == nil {
		db = r.db
	}
	return db.Create(txn).Error
}

func (r *transactionRepository) ListOpen(db *gorm.DB) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var txns []models.Transaction
	if err := db.Where("is_returned = false").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) ListOpenByBook(db *gorm.DB, bookID uuid.UUID) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var txns []models.Transaction
	err := db.Where("book_id = ? AND is_returned = false", bookID).
		Order("issue_date ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) MarkReturned(db *gorm.DB, id uuid.UUID, returnedAt time.Time) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Transaction{}).
		Where("id = ? AND is_returned = false", id).
		Updates(map[string]interface{}{
			"is_returned": true,
			"return_date": returnedAt,
		}).Error
}

func (r *transactionRepository) CountOpenByBook(db *gorm.DB, bookID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("book_id = ? AND is_returned = false", bookID).
		Count(&n).Error
	return n, err
}

func (r *transactionRepository) CountOpenByStudent(db *gorm.DB, studentID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("student_id = ? AND is_returned = false", studentID).
		Count(&n).Error
	return n, err
}
