package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Fields  []string            `json:"fields,omitempty"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	TotalPage int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// statusFor maps application error codes to HTTP statuses.
func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrUnauthenticated, apperrors.ErrTokenExpired:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden, apperrors.ErrFieldLocked:
		return http.StatusForbidden
	case apperrors.ErrStateTransition:
		return http.StatusUnprocessableEntity
	case apperrors.ErrPartialSuccess:
		return http.StatusMultiStatus
	case apperrors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response translated from the
// application error taxonomy.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	c.JSON(statusFor(appErr.Code), Response{
		Success: false,
		Error: &Error{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}

// RespondWithPartial sends a multi-status response carrying the
// partial result alongside the error that interrupted it.
func RespondWithPartial(c *gin.Context, data interface{}, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	c.JSON(http.StatusMultiStatus, Response{
		Success: false,
		Data:    data,
		Error: &Error{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}

// RespondWithPagination sends a paginated response
func RespondWithPagination(c *gin.Context, data interface{}, page, pageSize, total int) {
	totalPages := (total + pageSize - 1) / pageSize

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PaginatedResponse{
			Data: data,
			Pagination: Pagination{
				Page:      page,
				PageSize:  pageSize,
				Total:     total,
				TotalPage: totalPages,
			},
		},
	})
}
