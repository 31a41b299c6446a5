package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmutissiz-creator/libraTech/internal/models"
	"github.com/mahmutissiz-creator/libraTech/internal/services"
)

type stubCatalog struct {
	services.CatalogService
	addBookErr error
}

func (s *stubCatalog) AddBook(title, author, isbn, category string) (*models.Book, error) {
	if s.addBookErr != nil {
		return nil, s.addBookErr
	}
	return &models.Book{ID: uuid.New(), Title: title, Author: author, ISBN: isbn, Status: models.BookStatusAvailable}, nil
}

type stubCirculation struct {
	services.CirculationService
	issueErr error
	warning  string
	gotDays  int
}

func (s *stubCirculation) IssueBook(isbn, studentNumber string, durationDays int) (*services.IssueResult, error) {
	s.gotDays = durationDays
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return &services.IssueResult{Transaction: &models.Transaction{ID: uuid.New()}, Warning: s.warning}, nil
}

func newTestRouter(catalog services.CatalogService, circulation services.CirculationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, catalog, circulation, 14)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueBook_EnvelopeAndDefaults(t *testing.T) {
	circ := &stubCirculation{warning: "Ayşe Demir has borrowed \"1984\" before."}
	r := newTestRouter(&stubCatalog{}, circ)

	w := doJSON(t, r, http.MethodPost, "/loans", `{"isbn":"9780451524935","student_number":"2024002"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"warning"`)
	// Omitted duration falls back to the configured default.
	assert.Equal(t, 14, circ.gotDays)
}

func TestIssueBook_DomainErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", services.ErrBookUnavailable, http.StatusConflict},
		{"book_missing", services.ErrBookNotFound, http.StatusNotFound},
		{"student_missing", services.ErrStudentNotFound, http.StatusNotFound},
		{"bad_duration", services.ErrInvalidDuration, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&stubCatalog{}, &stubCirculation{issueErr: tc.err})
			w := doJSON(t, r, http.MethodPost, "/loans", `{"isbn":"x","student_number":"y","duration_days":7}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestIssueBook_RejectsMissingFields(t *testing.T) {
	r := newTestRouter(&stubCatalog{}, &stubCirculation{})
	w := doJSON(t, r, http.MethodPost, "/loans", `{"isbn":"9780451524935"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddBook_DuplicateISBNConflict(t *testing.T) {
	r := newTestRouter(&stubCatalog{addBookErr: services.ErrDuplicateISBN}, &stubCirculation{})
	w := doJSON(t, r, http.MethodPost, "/books", `{"title":"1984","author":"George Orwell","isbn":"9780451524935"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestAddBook_Created(t *testing.T) {
	r := newTestRouter(&stubCatalog{}, &stubCirculation{})
	w := doJSON(t, r, http.MethodPost, "/books", `{"title":"1984","author":"George Orwell","isbn":"9780451524935","category":"Bilim Kurgu"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.NotContains(t, w.Body.String(), `"warning"`)
}

func TestUnknownError_IsNotLeaked(t *testing.T) {
	r := newTestRouter(&stubCatalog{addBookErr: assert.AnError}, &stubCirculation{})
	w := doJSON(t, r, http.MethodPost, "/books", `{"title":"t","author":"a","isbn":"i"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
