package loans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/auth"
)

type LoanHandler struct{ svc *Service }

// RegisterRoutes mounts the loan endpoints. Every route requires an identity.
func RegisterRoutes(r gin.IRoutes, svc *Service, requireAuth gin.HandlerFunc) {
	h := &LoanHandler{svc: svc}
	r.POST("/loans", requireAuth, h.Create)
	r.GET("/loans", requireAuth, h.List)
	r.GET("/loans/:id", requireAuth, h.Get)
	r.PUT("/loans/:id/status", requireAuth, h.UpdateStatus)
	r.POST("/loans/:id/rate", requireAuth, h.Rate)
	r.POST("/loans/:id/damage", requireAuth, h.ReportDamage)
	r.PUT("/loans/:id/damage/resolve", requireAuth, h.ResolveDamage)
}

// Create godoc
// @Summary  Request a loan
// @Tags     loans
// @Accept   json
// @Produce  json
// @Param    body body CreateLoanRequest true "loan request"
// @Success  201 {object} LoanResponse
// @Router   /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	var bad []apierr.FieldError
	start, ok := parseDate(req.StartDate)
	if !ok {
		bad = append(bad, apierr.FieldError{Field: "startDate", Message: "Start date must be a valid date"})
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		bad = append(bad, apierr.FieldError{Field: "endDate", Message: "End date must be a valid date"})
	}
	if len(bad) > 0 {
		apierr.Respond(c, "create loan", apierr.InvalidFields(bad))
		return
	}

	l, err := h.svc.Create(c.Request.Context(), auth.UserID(c), CreateInput{
		BookID:         req.BookID,
		StartDate:      start,
		EndDate:        end,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		Notes:          req.Notes,
	})
	if err != nil {
		apierr.Respond(c, "create loan", err)
		return
	}
	c.Header("Location", "/api/loans/"+l.ID)
	c.JSON(http.StatusCreated, toLoanResponse(l, h.svc.Now(), false))
}

// List godoc
// @Summary  Loans where the caller is borrower or lender
// @Tags     loans
// @Param    role   query string false "borrower|lender"
// @Param    status query string false "loan status"
// @Success  200 {array} LoanResponse
// @Router   /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.UserID(c), c.Query("role"), c.Query("status"))
	if err != nil {
		apierr.Respond(c, "list loans", err)
		return
	}
	now := h.svc.Now()
	out := make([]LoanResponse, 0, len(items))
	for i := range items {
		out = append(out, toLoanResponse(&items[i], now, false))
	}
	c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Get(c *gin.Context) {
	l, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "get loan", err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(l, h.svc.Now(), true))
}

// UpdateStatus godoc
// @Summary  Approve, reject, activate, complete or cancel a loan
// @Tags     loans
// @Param    id   path string true "loan id"
// @Param    body body UpdateStatusRequest true "new status"
// @Success  200 {object} LoanResponse
// @Router   /loans/{id}/status [put]
func (h *LoanHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	l, err := h.svc.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		apierr.Respond(c, "update loan status", err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(l, h.svc.Now(), false))
}

// Rate godoc
// @Summary  Rate the other party of a completed loan
// @Tags     loans
// @Param    id   path string true "loan id"
// @Param    body body RateRequest true "rating"
// @Success  200 {object} LoanResponse
// @Router   /loans/{id}/rate [post]
func (h *LoanHandler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	l, err := h.svc.Rate(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		apierr.Respond(c, "rate loan", err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(l, h.svc.Now(), false))
}

func (h *LoanHandler) ReportDamage(c *gin.Context) {
	var req DamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	l, err := h.svc.ReportDamage(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Description)
	if err != nil {
		apierr.Respond(c, "report damage", err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(l, h.svc.Now(), false))
}

func (h *LoanHandler) ResolveDamage(c *gin.Context) {
	l, err := h.svc.ResolveDamage(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "resolve damage", err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(l, h.svc.Now(), false))
}
