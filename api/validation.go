package api

import (
	// Go Internal Packages
	"net/http"

	// Local Packages
	models "e-wallet/models"

	// External Packages
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

func validateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}
	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

// validateAmount checks what the struct tags cannot express for decimal amounts.
func validateAmount(amount decimal.Decimal) []ValidationError {
	switch {
	case !amount.IsPositive():
		return []ValidationError{{Field: "Amount", Message: "Value must be greater than 0", Type: "gt"}}
	case !models.ExactAmount(amount):
		return []ValidationError{{Field: "Amount", Message: "At most 2 decimal places are allowed", Type: "precision"}}
	}
	return nil
}

func errorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "oneof":
		return "Must be one of " + fe.Param()
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}

func respondWithValidationError(c *gin.Context, details []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: details,
	})
}

func respondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}
