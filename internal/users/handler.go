package users

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bookbnb-backend/internal/books"
	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/auth"
	"bookbnb-backend/internal/platform/paging"
)

type UserHandler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, requireAuth gin.HandlerFunc) {
	h := &UserHandler{svc: svc}
	r.GET("/users", h.Search)
	r.GET("/users/:id", h.Profile)
	r.GET("/users/:id/books", h.Books)
	r.GET("/users/:id/reviews", h.Reviews)
	r.PUT("/users/:id/verify", requireAuth, h.Verify)
}

// Search godoc
// @Summary  Search users by name or location
// @Tags     users
// @Param    search   query string false "username / first / last name contains"
// @Param    location query string false "location contains"
// @Param    page     query int    false "page"
// @Param    limit    query int    false "page size (1-50)"
// @Success  200 {object} SearchResponse
// @Router   /users [get]
func (h *UserHandler) Search(c *gin.Context) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"), 20, 50)
	if err != nil {
		apierr.Respond(c, "search users", err)
		return
	}
	res, err := h.svc.Search(c.Request.Context(),
		strings.TrimSpace(c.Query("search")), strings.TrimSpace(c.Query("location")), p)
	if err != nil {
		apierr.Respond(c, "search users", err)
		return
	}
	out := SearchResponse{
		Users:      make([]UserResponse, 0, len(res.Users)),
		Pagination: Pagination{Info: res.Info, TotalUsers: res.Total},
	}
	for i := range res.Users {
		out.Users = append(out.Users, toUserResponse(&res.Users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Profile godoc
// @Summary  Public profile with available books and stats
// @Tags     users
// @Param    id path string true "user id"
// @Success  200 {object} ProfileResponse
// @Router   /users/{id} [get]
func (h *UserHandler) Profile(c *gin.Context) {
	res, err := h.svc.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		User:  toUserResponse(res.User),
		Books: books.ToResponses(res.Books),
		Stats: toStatsResponse(res.User, res.Stats),
	})
}

func (h *UserHandler) Books(c *gin.Context) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"), 12, 50)
	if err != nil {
		apierr.Respond(c, "user books", err)
		return
	}
	res, err := h.svc.Books(c.Request.Context(), c.Param("id"), c.Query("available") == "true", p)
	if err != nil {
		apierr.Respond(c, "user books", err)
		return
	}
	c.JSON(http.StatusOK, books.NewListResponse(res))
}

func (h *UserHandler) Reviews(c *gin.Context) {
	items, err := h.svc.Reviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "user reviews", err)
		return
	}
	out := ReviewsResponse{Reviews: make([]ReviewResponse, 0, len(items))}
	for _, r := range items {
		out.Reviews = append(out.Reviews, toReviewResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Verify(c *gin.Context) {
	u, err := h.svc.Verify(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		apierr.Respond(c, "verify user", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}
