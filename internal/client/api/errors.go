package api

import (
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/common"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var kindErrors = map[string]error{
	"validation":            common.ErrValidation,
	"not_found":             common.ErrorNotFound,
	"invalid_state":         common.ErrInvalidState,
	"version_conflict":      common.ErrVersionConflict,
	"duplicate_shipment":    common.ErrDuplicateShipment,
	"already_exists":        common.ErrAlreadyExists,
	"missing_fiscal_data":   common.ErrMissingFiscalData,
	"unauthorized":          common.ErrorUnauthorized,
	"forbidden":             common.ErrForbidden,
	"token_expired":         common.ErrTokenExpired,
	"refresh_token_expired": common.ErrRefreshTokenExpired,
	"internal":              common.ErrorInternal,
}

// Is lets callers match server failures against the common sentinels.
func (e *APIError) Is(target error) bool {
	sentinel, ok := kindErrors[e.Kind]
	return ok && sentinel == target
}
