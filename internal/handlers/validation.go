package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// isTaxID accepts Brazilian tax ids as digits only: CPF (11) or CNPJ (14).
func isTaxID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 11 && len(value) != 14 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// registerValidations installs the custom binding rules used by the request
// DTOs.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("taxid", isTaxID)
	}
}
