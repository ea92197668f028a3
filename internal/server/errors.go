package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers/pdf"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const notInitializedMessage = "building data is not initialized, run the importer (apps/importer)"

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog returns the response type and code logged with a failed request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, domain.ErrImportInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "an import is in progress",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, domain.ErrNotInitialized), db.IsUndefinedTableErr(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "not_initialized",
			Message: notInitializedMessage,
		}
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "address search is not available",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidEGID),
		errors.Is(err, domain.ErrInvalidEGRID),
		errors.Is(err, domain.ErrInvalidAddressID),
		errors.Is(err, domain.ErrInvalidEntranceID),
		errors.Is(err, domain.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrEmptySearchCriteria),
		errors.Is(err, domain.ErrInvalidBatchSize),
		errors.Is(err, domain.ErrEntranceNotMapped),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrBuildingNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, pdf.ErrEmptyView),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrBuildingNotFound):
		return "building not found"
	case errors.Is(err, domain.ErrAddressNotFound):
		return "address not found"
	default:
		return "not found"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrInvalidEGID):
		return domain.ErrInvalidEGID.Error()
	case errors.Is(err, domain.ErrInvalidEGRID):
		return domain.ErrInvalidEGRID.Error()
	case errors.Is(err, domain.ErrInvalidAddressID):
		return domain.ErrInvalidAddressID.Error()
	case errors.Is(err, domain.ErrInvalidEntranceID):
		return domain.ErrInvalidEntranceID.Error()
	case errors.Is(err, domain.ErrInvalidLimit):
		return domain.ErrInvalidLimit.Error()
	case errors.Is(err, domain.ErrInvalidFilter):
		return domain.ErrInvalidFilter.Error()
	case errors.Is(err, domain.ErrEmptySearchCriteria):
		return domain.ErrEmptySearchCriteria.Error()
	case errors.Is(err, domain.ErrEntranceNotMapped):
		return domain.ErrEntranceNotMapped.Error()
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return pagination.ErrInvalidPageToken.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "empty_search_criteria":
		return "query"
	case "entrance_not_mapped", "invalid_entrance_id":
		return "entranceId"
	case "invalid_address_id":
		return "id"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_egid":
		return "EGID must be 1 to 9 digits"
	case "invalid_egrid":
		return "EGRID must be CH followed by 12 alphanumeric characters"
	case "invalid_address_id", "invalid_entrance_id":
		return "must be a UUID"
	case "invalid_limit":
		return "limit must be between 1 and 100"
	case "empty_search_criteria":
		return "at least one of strasse, hausnummer, plz, ort or adresse is required"
	case "entrance_not_mapped":
		return "entrance is not mapped to this building"
	case "invalid_page_token":
		return "invalid page token"
	default:
		return "invalid value"
	}
}
