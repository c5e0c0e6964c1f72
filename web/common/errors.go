package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftreport.com/shiftreport/core"
)

// RespondError writes err with the status of its class. Unclassified errors are
// attached to the context for the request logger and reported as 500.
func RespondError(c *gin.Context, err error) {
	var fe *core.FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, NewFieldErrorResponse(fe.Field, fe.Message))
	case errors.Is(err, core.ErrValidation):
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
	case errors.Is(err, core.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(err.Error()))
	case errors.Is(err, core.ErrAuthorization):
		c.JSON(http.StatusForbidden, NewErrorResponse(err.Error()))
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(err.Error()))
	case errors.Is(err, core.ErrConflict):
		c.JSON(http.StatusConflict, NewErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	}
}

// RespondBindingError reports a request body that failed to decode or validate.
func RespondBindingError(c *gin.Context, err error) {
	field, message := BindingProblem(err)
	c.JSON(http.StatusBadRequest, NewFieldErrorResponse(field, message))
}
