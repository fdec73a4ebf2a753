package books

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/auth"
	"bookbnb-backend/internal/platform/paging"
)

const (
	defaultLimit = 12
	maxLimit     = 50
)

type BookHandler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, requireAuth gin.HandlerFunc) {
	h := &BookHandler{svc: svc}
	r.GET("/books", h.List)
	r.GET("/books/user/:userId", h.ListByUser)
	r.GET("/books/:id", h.Get)
	r.POST("/books", requireAuth, h.Create)
	r.PUT("/books/:id", requireAuth, h.Update)
	r.DELETE("/books/:id", requireAuth, h.Delete)
	r.PUT("/books/:id/availability", requireAuth, h.SetAvailability)
}

// parseFilter reads the public search query parameters.
func parseFilter(c *gin.Context) (Filter, error) {
	f := Filter{
		Search:        strings.TrimSpace(c.Query("search")),
		Genre:         strings.TrimSpace(c.Query("genre")),
		Location:      strings.TrimSpace(c.Query("location")),
		AvailableOnly: true,
	}
	var bad []apierr.FieldError
	for _, p := range []struct {
		name string
		dst  *decimal.NullDecimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			bad = append(bad, apierr.FieldError{Field: p.name, Message: p.name + " must be a number"})
			continue
		}
		*p.dst = decimal.NewNullDecimal(d)
	}
	if cond := c.Query("condition"); cond != "" {
		if !Condition(cond).Valid() {
			bad = append(bad, apierr.FieldError{Field: "condition", Message: "Invalid condition"})
		}
		f.Condition = Condition(cond)
	}
	if len(bad) > 0 {
		return Filter{}, apierr.InvalidFields(bad)
	}
	return f, nil
}

// List godoc
// @Summary  Search available books
// @Tags     books
// @Param    search    query string false "full text search"
// @Param    genre     query string false "genre contains"
// @Param    location  query string false "location contains"
// @Param    minPrice  query number false "min daily rate"
// @Param    maxPrice  query number false "max daily rate"
// @Param    condition query string false "condition"
// @Param    page      query int    false "page (1-)"
// @Param    limit     query int    false "page size (1-50)"
// @Success  200 {object} ListResponse
// @Router   /books [get]
func (h *BookHandler) List(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		apierr.Respond(c, "list books", err)
		return
	}
	p, err := paging.Parse(c.Query("page"), c.Query("limit"), defaultLimit, maxLimit)
	if err != nil {
		apierr.Respond(c, "list books", err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		apierr.Respond(c, "list books", err)
		return
	}
	c.JSON(http.StatusOK, NewListResponse(res))
}

// ListByUser returns the owner's available books without pagination.
func (h *BookHandler) ListByUser(c *gin.Context) {
	res, err := h.svc.ByOwner(c.Request.Context(), c.Param("userId"), true, paging.All)
	if err != nil {
		apierr.Respond(c, "list user books", err)
		return
	}
	c.JSON(http.StatusOK, ToResponses(res.Books))
}

// Get godoc
// @Summary  Book detail with owner
// @Tags     books
// @Param    id path string true "book id"
// @Success  200 {object} BookResponse
// @Router   /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "get book", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(b, true))
}

// Create godoc
// @Summary  List a book for lending
// @Tags     books
// @Param    body body CreateBookRequest true "listing"
// @Success  201 {object} BookResponse
// @Router   /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	b, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req.input())
	if err != nil {
		apierr.Respond(c, "create book", err)
		return
	}
	c.Header("Location", "/api/books/"+b.ID)
	c.JSON(http.StatusCreated, ToResponse(b, false))
}

func (h *BookHandler) Update(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	b, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), req.input())
	if err != nil {
		apierr.Respond(c, "update book", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(b, false))
}

func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		apierr.Respond(c, "delete book", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (h *BookHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	b, err := h.svc.SetAvailability(c.Request.Context(), auth.UserID(c), c.Param("id"), *req.IsAvailable)
	if err != nil {
		apierr.Respond(c, "set availability", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(b, false))
}
