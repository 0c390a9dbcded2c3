package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/apierr"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
	"github.com/Amsterdam/meldingen-sub000/internal/token"
)

// MapError translates a service error into its transport shape. The mapping
// is closed over the package sentinels; anything unrecognized is a 500.
func MapError(err error) *apierr.Error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, token.ErrTokenExpired):
		return apierr.New(http.StatusUnauthorized, "token_expired", err)
	case errors.Is(err, token.ErrTokenInvalid):
		return apierr.New(http.StatusUnauthorized, "token_invalid", err)
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidStaffToken):
		return apierr.New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, lifecycle.ErrStaffOnly):
		return apierr.New(http.StatusForbidden, "staff_only", err)
	case errors.Is(err, lifecycle.ErrLocationModeUnset):
		return apierr.New(http.StatusInternalServerError, "schema_misconfigured", err)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return apierr.New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, services.ErrPrimaryValidationFailed):
		return apierr.New(http.StatusBadRequest, "primary_validation_failed", err)
	case errors.Is(err, schema.ErrInvalidAnswerShape):
		return apierr.New(http.StatusBadRequest, "invalid_answer_shape", err)
	case errors.Is(err, schema.ErrInvalidTree):
		return apierr.New(http.StatusBadRequest, "invalid_schema_tree", err)
	case errors.Is(err, rules.ErrPredicateNotSatisfied):
		return apierr.New(http.StatusBadRequest, "predicate_not_satisfied", err)
	case errors.Is(err, rules.ErrInvalidExpression):
		return apierr.New(http.StatusInternalServerError, "invalid_expression", err)
	case errors.Is(err, services.ErrMaxAssetsExceeded):
		return apierr.New(http.StatusBadRequest, "max_assets_exceeded", err)
	case errors.Is(err, services.ErrAssetSelectionRequired):
		return apierr.New(http.StatusBadRequest, "asset_selection_required", err)
	case errors.Is(err, services.ErrNoAssetTypeBound):
		return apierr.New(http.StatusBadRequest, "no_asset_type_bound", err)
	case errors.Is(err, services.ErrInvalidCoordinates):
		return apierr.New(http.StatusBadRequest, "invalid_coordinates", err)
	case errors.Is(err, services.ErrConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal_error", err)
	}
}

func respondServiceError(c *gin.Context, err error) {
	ae := MapError(err)
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}
