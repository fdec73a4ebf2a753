package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookbnb-backend/internal/platform/apierr"
)

type AuthHandler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", RequireAuth(svc.Secret()), h.Me)
}

type RegisterRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=30"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=6"`
	FirstName string  `json:"firstName" binding:"required,max=100"`
	LastName  string  `json:"lastName" binding:"required,max=100"`
	Avatar    *string `json:"avatar,omitempty"`
}

// Login はメールアドレスかユーザー名のどちらでも可
type LoginRequest struct {
	Login    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Avatar       *string   `json:"avatar,omitempty"`
	Rating       float64   `json:"rating"`
	TotalRatings int       `json:"totalRatings"`
	IsVerified   bool      `json:"isVerified"`
	JoinDate     time.Time `json:"joinDate"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		apierr.Respond(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	res, err := h.svc.Me(c.Request.Context(), UserID(c))
	if err != nil {
		apierr.Respond(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
