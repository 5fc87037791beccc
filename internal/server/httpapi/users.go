package httpapi

import (
	"net/http"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// preferencesRequest keeps the snake_case keys clients of the user
// preference endpoint already send.
type preferencesRequest struct {
	FontSize     string `json:"font_size"`
	ContrastMode string `json:"contrast_mode"`
}

type preferencesResponse struct {
	UserID       string    `json:"userId"`
	FontSize     string    `json:"font_size"`
	ContrastMode string    `json:"contrast_mode"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toPreferencesResponse(p *models.UserPreferences) *preferencesResponse {
	if p == nil {
		return nil
	}
	return &preferencesResponse{UserID: p.UserID, FontSize: p.FontSize, ContrastMode: p.ContrastMode, UpdatedAt: p.UpdatedAt}
}

// pathUserID reads the :id parameter as a user UUID.
func pathUserID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, KindValidation, "invalid user id")
		return "", false
	}
	return id.String(), true
}

func (h *handlers) listUsers(c *gin.Context) {
	list, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(list, func(u *models.User, _ int) userResponse { return toUserResponse(u) }))
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *handlers) updateUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Users.Update(c.Request.Context(), actorFrom(c), id,
		services.UserUpdate{Username: req.Username, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *handlers) deleteUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getPreferences answers null for a user that has not saved any.
func (h *handlers) getPreferences(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	p, err := h.svc.Users.Preferences(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreferencesResponse(p))
}

func (h *handlers) putPreferences(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.svc.Users.UpsertPreferences(c.Request.Context(), actorFrom(c), id, req.FontSize, req.ContrastMode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreferencesResponse(p))
}
