package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Stockline-Systems/inventory/internal/model"
)

// RegisterValidators installs custom binding rules on gin's validator.
// Call once during startup before the router handles traffic.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("orgrole", func(fl validator.FieldLevel) bool {
		return model.ValidRole(model.Role(fl.Field().String()))
	})
}
