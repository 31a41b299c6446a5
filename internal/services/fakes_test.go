package services

import (
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahmutissiz-creator/libraTech/internal/models"
)

// In-memory repository fakes. They ignore the tx argument (the real
// implementations fall back to their own handle when it is nil) and return
// copies on reads, like a database would.

type fakeDB struct{}

func (fakeDB) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	return fc(nil)
}

type fakeBookRepo struct {
	books map[uuid.UUID]*models.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uuid.UUID]*models.Book)}
}

func (r *fakeBookRepo) Create(_ *gorm.DB, book *models.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	stored := *book
	r.books[book.ID] = &stored
	return nil
}

func (r *fakeBookRepo) List(_ *gorm.DB) ([]models.Book, error) {
	out := make([]models.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookRepo) GetByISBN(_ *gorm.DB, isbn string) (*models.Book, error) {
	for _, b := range r.books {
		if b.ISBN == isbn {
			found := *b
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBookRepo) GetByISBNForUpdate(db *gorm.DB, isbn string) (*models.Book, error) {
	return r.GetByISBN(db, isbn)
}

func (r *fakeBookRepo) UpdateStatus(_ *gorm.DB, id uuid.UUID, status models.BookStatus) error {
	if b, ok := r.books[id]; ok {
		b.Status = status
	}
	return nil
}

func (r *fakeBookRepo) UpdateStatusIf(_ *gorm.DB, id uuid.UUID, from, to models.BookStatus) (bool, error) {
	b, ok := r.books[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (r *fakeBookRepo) Delete(_ *gorm.DB, id uuid.UUID) error {
	delete(r.books, id)
	return nil
}

type fakeStudentRepo struct {
	students map[uuid.UUID]*models.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uuid.UUID]*models.Student)}
}

func (r *fakeStudentRepo) Create(_ *gorm.DB, student *models.Student) error {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	stored := *student
	stored.ReadingHistory = append([]string(nil), student.ReadingHistory...)
	r.students[student.ID] = &stored
	return nil
}

func (r *fakeStudentRepo) List(_ *gorm.DB) ([]models.Student, error) {
	out := make([]models.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeStudentRepo) GetByNumber(_ *gorm.DB, studentNumber string) (*models.Student, error) {
	for _, s := range r.students {
		if s.StudentNumber == studentNumber {
			found := *s
			found.ReadingHistory = append([]string(nil), s.ReadingHistory...)
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) AppendHistory(_ *gorm.DB, id, bookID uuid.UUID) error {
	if s, ok := r.students[id]; ok {
		s.ReadingHistory = append(s.ReadingHistory, bookID.String())
	}
	return nil
}

func (r *fakeStudentRepo) Delete(_ *gorm.DB, id uuid.UUID) error {
	delete(r.students, id)
	return nil
}

type fakeTransactionRepo struct {
	txns []*models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{}
}

func (r *fakeTransactionRepo) Create(_ *gorm.DB, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	stored := *txn
	r.txns = append(r.txns, &stored)
	return nil
}

func (r *fakeTransactionRepo) ListOpen(_ *gorm.DB) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range r.txns {
		if !t.IsReturned {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) ListOpenByBook(_ *gorm.DB, bookID uuid.UUID) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range r.txns {
		if !t.IsReturned && t.BookID == bookID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.Before(out[j].IssueDate) })
	return out, nil
}

func (r *fakeTransactionRepo) MarkReturned(_ *gorm.DB, id uuid.UUID, returnedAt time.Time) error {
	for _, t := range r.txns {
		if t.ID == id && !t.IsReturned {
			t.IsReturned = true
			at := returnedAt
			t.ReturnDate = &at
		}
	}
	return nil
}

func (r *fakeTransactionRepo) CountOpenByBook(_ *gorm.DB, bookID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range r.txns {
		if !t.IsReturned && t.BookID == bookID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) CountOpenByStudent(_ *gorm.DB, studentID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range r.txns {
		if !t.IsReturned && t.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

// testEnv bundles both services over one shared set of fakes.
type testEnv struct {
	books       *fakeBookRepo
	students    *fakeStudentRepo
	txns        *fakeTransactionRepo
	catalog     CatalogService
	circulation CirculationService
}

func newTestEnv() *testEnv {
	books := newFakeBookRepo()
	students := newFakeStudentRepo()
	txns := newFakeTransactionRepo()
	return &testEnv{
		books:       books,
		students:    students,
		txns:        txns,
		catalog:     NewCatalogService(fakeDB{}, books, students, txns),
		circulation: NewCirculationService(fakeDB{}, books, students, txns),
	}
}

func (e *testEnv) addBook(isbn, title string) *models.Book {
	book, err := e.catalog.AddBook(title, "Test Author", isbn, "Test")
	if err != nil {
		panic(err)
	}
	return book
}

func (e *testEnv) addStudent(number, name string) *models.Student {
	student, err := e.catalog.AddStudent(name, number, "", "10-A")
	if err != nil {
		panic(err)
	}
	return student
}
