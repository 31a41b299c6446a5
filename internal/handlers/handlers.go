package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mahmutissiz-creator/libraTech/internal/services"
)

type LibraryHandler struct {
	catalog     services.CatalogService
	circulation services.CirculationService
	loanDays    int
}

func RegisterRoutes(r *gin.Engine, catalog services.CatalogService, circulation services.CirculationService, defaultLoanDays int) {
	h := &LibraryHandler{catalog: catalog, circulation: circulation, loanDays: defaultLoanDays}

	// Catalogue endpoints
	r.POST("/books", h.addBook)
	r.GET("/books", h.listBooks)
	r.DELETE("/books/:id", h.deleteBook)
	r.POST("/students", h.addStudent)
	r.GET("/students", h.listStudents)
	r.DELETE("/students/:id", h.deleteStudent)

	// Circulation endpoints
	r.POST("/loans", h.issueBook)
	r.POST("/returns", h.returnBook)
	r.GET("/loans/active", h.listActiveLoans)
	r.GET("/loans/overdue", h.listOverdueLoans)
}

// envelope is the uniform operation result consumed by the UI.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Warning string      `json:"warning,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, message, warning string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Warning: warning, Data: data})
}

// respondErr maps domain errors to HTTP statuses. Unknown errors collapse to a
// generic 500 so store internals never reach the client.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrDuplicateISBN),
		errors.Is(err, services.ErrDuplicateStudentNumber),
		errors.Is(err, services.ErrBookUnavailable),
		errors.Is(err, services.ErrNoOpenLoan),
		errors.Is(err, services.ErrBookOnLoan),
		errors.Is(err, services.ErrStudentHasOpenLoan):
		c.JSON(http.StatusConflict, envelope{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "internal error, please try again"})
	}
}

type addBookRequest struct {
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author" binding:"required"`
	ISBN     string `json:"isbn" binding:"required"`
	Category string `json:"category"`
}

func (h *LibraryHandler) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	}

	book, err := h.catalog.AddBook(req.Title, req.Author, req.ISBN, req.Category)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "book added", "", book)
}

func (h *LibraryHandler) listBooks(c *gin.Context) {
	books, err := h.catalog.ListBooks()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) deleteBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid book id"})
		return
	}

	if err := h.catalog.DeleteBook(id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, "book deleted", "", nil)
}

type addStudentRequest struct {
	Name          string `json:"name" binding:"required"`
	StudentNumber string `json:"student_number" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	Grade         string `json:"grade"`
}

func (h *LibraryHandler) addStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	}

	student, err := h.catalog.AddStudent(req.Name, req.StudentNumber, req.Email, req.Grade)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "student registered", "", student)
}

func (h *LibraryHandler) listStudents(c *gin.Context) {
	students, err := h.catalog.ListStudents()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *LibraryHandler) deleteStudent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid student id"})
		return
	}

	if err := h.catalog.DeleteStudent(id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, "student deleted", "", nil)
}

type issueBookRequest struct {
	ISBN          string `json:"isbn" binding:"required"`
	StudentNumber string `json:"student_number" binding:"required"`
	DurationDays  int    `json:"duration_days"`
}

func (h *LibraryHandler) issueBook(c *gin.Context) {
	var req issueBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	}
	days := req.DurationDays
	if days == 0 {
		days = h.loanDays
	}

	result, err := h.circulation.IssueBook(req.ISBN, req.StudentNumber, days)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "book issued", result.Warning, result.Transaction)
}

type returnBookRequest struct {
	ISBN string `json:"isbn" binding:"required"`
}

func (h *LibraryHandler) returnBook(c *gin.Context) {
	var req returnBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	}

	txn, err := h.circulation.ReturnBook(req.ISBN)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, "book returned", "", txn)
}

func (h *LibraryHandler) listActiveLoans(c *gin.Context) {
	loans, err := h.circulation.ListActiveLoans()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) listOverdueLoans(c *gin.Context) {
	loans, err := h.circulation.ListOverdueLoans()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}
