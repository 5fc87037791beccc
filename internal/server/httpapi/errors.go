package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/gin-gonic/gin"
)

// Error kinds reported in the "error" field of a failed response.
const (
	KindValidation          = "validation"
	KindNotFound            = "not_found"
	KindInvalidState        = "invalid_state"
	KindVersionConflict     = "version_conflict"
	KindDuplicateShipment   = "duplicate_shipment"
	KindAlreadyExists       = "already_exists"
	KindMissingFiscalData   = "missing_fiscal_data"
	KindUnauthorized        = "unauthorized"
	KindForbidden           = "forbidden"
	KindTokenExpired        = "token_expired"
	KindRefreshTokenExpired = "refresh_token_expired"
	KindInternal            = "internal"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a service error to an HTTP status and error kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, KindValidation
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, common.ErrDuplicateShipment):
		return http.StatusConflict, KindDuplicateShipment
	case errors.Is(err, common.ErrInvalidState):
		return http.StatusConflict, KindInvalidState
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, KindVersionConflict
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, KindAlreadyExists
	case errors.Is(err, common.ErrMissingFiscalData):
		return http.StatusUnprocessableEntity, KindMissingFiscalData
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, KindForbidden
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, KindTokenExpired
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, KindRefreshTokenExpired
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, KindUnauthorized
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: kind, Message: message})
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, kind := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		message = common.ErrorInternal.Error()
	}
	abortWithError(c, status, kind, message)
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, KindValidation, err.Error())
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, KindValidation, "invalid id "+strconv.Quote(c.Param("id")))
		return 0, false
	}
	return id, true
}
