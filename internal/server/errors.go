package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	authdomain "github.com/smallbiznis/apotek/internal/auth/domain"
	"github.com/smallbiznis/apotek/internal/authorization"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	reportdomain "github.com/smallbiznis/apotek/internal/report/domain"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"github.com/smallbiznis/apotek/pkg/db"
	"gorm.io/gorm"
)

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
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
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

	var stockErr *ledgerdomain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "insufficient_stock",
			Message: stockErr.Error(),
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{fieldError(err)},
		}
	}

	switch {
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_credentials",
			Message: "invalid credentials",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, ledgerdomain.ErrMedicineReferenced),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
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
		errors.Is(err, ledgerdomain.ErrMedicineUnavailable),
		errors.Is(err, invoicedomain.ErrTotalMismatch),
		errors.Is(err, reportdomain.ErrInvalidDateRange):
		return true
	case isPartyValidationError(err),
		isLedgerValidationError(err),
		isPurchaseValidationError(err),
		isInvoiceValidationError(err),
		isReportValidationError(err),
		isAuthValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, supplierdomain.ErrNotFound),
		errors.Is(err, ledgerdomain.ErrMedicineNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// fieldError turns a domain validation error into one field entry. Item and
// line errors keep their position in the request body.
func fieldError(err error) ValidationError {
	var itemErr *purchasedomain.ItemError
	if errors.As(err, &itemErr) {
		return ValidationError{
			Field:   fmt.Sprintf("[%d].%s", itemErr.Index, itemErr.Field),
			Code:    validationErrorCode(itemErr.Err),
			Message: itemErr.Error(),
		}
	}
	var lineErr *invoicedomain.LineError
	if errors.As(err, &lineErr) {
		return ValidationError{
			Field:   fmt.Sprintf("items[%d].%s", lineErr.Index, lineErr.Field),
			Code:    validationErrorCode(lineErr.Err),
			Message: lineErr.Error(),
		}
	}
	var unavailable *ledgerdomain.UnavailableError
	if errors.As(err, &unavailable) {
		return ValidationError{
			Field:   "items",
			Code:    ledgerdomain.ErrMedicineUnavailable.Error(),
			Message: unavailable.Error(),
		}
	}

	code := validationErrorCode(err)
	return ValidationError{
		Field:   validationErrorField(code),
		Code:    code,
		Message: validationErrorMessage(code),
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return strings.ReplaceAll(err.Error(), " ", "_")
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "total_mismatch":
		return "finalTotal"
	case "invalid_date_range":
		return "date_range"
	case "empty_items", "empty_intake":
		return "items"
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
	case "total_mismatch":
		return "final total does not match items and discount"
	case "invalid_date_range":
		return "start_date and end_date are required as YYYY-MM-DD with start_date <= end_date"
	default:
		return "invalid value"
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, supplierdomain.ErrNotFound):
		return "supplier not found"
	case errors.Is(err, customerdomain.ErrNotFound):
		return "customer not found"
	case errors.Is(err, ledgerdomain.ErrMedicineNotFound):
		return "medicine not found"
	case errors.Is(err, invoicedomain.ErrNotFound):
		return "invoice not found"
	case errors.Is(err, authdomain.ErrUserNotFound):
		return "user not found"
	default:
		return "not found"
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, ledgerdomain.ErrMedicineReferenced) {
		return "medicine is referenced by an invoice"
	}
	return "conflict"
}

func isPartyValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidID,
		supplierdomain.ErrInvalidName,
		supplierdomain.ErrInvalidEmail,
		supplierdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isLedgerValidationError(err error) bool {
	switch err {
	case ledgerdomain.ErrInvalidID,
		ledgerdomain.ErrInvalidQuantity:
		return true
	default:
		return false
	}
}

func isPurchaseValidationError(err error) bool {
	var itemErr *purchasedomain.ItemError
	if errors.As(err, &itemErr) {
		return true
	}
	switch err {
	case purchasedomain.ErrEmptyIntake,
		purchasedomain.ErrInvalidName,
		purchasedomain.ErrInvalidQuantity,
		purchasedomain.ErrInvalidCostPrice,
		purchasedomain.ErrInvalidEntryDate,
		purchasedomain.ErrInvalidExpiryDate,
		purchasedomain.ErrExpiryBeforeEntry,
		purchasedomain.ErrInvalidSupplierID:
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	var lineErr *invoicedomain.LineError
	if errors.As(err, &lineErr) {
		return true
	}
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidCustomerID,
		invoicedomain.ErrInvalidDate,
		invoicedomain.ErrInvalidDiscount,
		invoicedomain.ErrInvalidFinalTotal,
		invoicedomain.ErrEmptyItems,
		invoicedomain.ErrInvalidMedicineID,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrInvalidUnitPrice:
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch err {
	case reportdomain.ErrInvalidSupplierID,
		reportdomain.ErrInvalidCustomerID:
		return true
	default:
		return false
	}
}

func isAuthValidationError(err error) bool {
	switch err {
	case authdomain.ErrInvalidEmail,
		authdomain.ErrWeakPassword,
		authdomain.ErrInvalidRole:
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch err {
	case auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidType:
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger a low-cardinality error type and code.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return "internal", code
	}
	return payload.Type, code
}
