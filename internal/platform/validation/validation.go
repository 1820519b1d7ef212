// Package validation wires custom binding validators into gin's validator
// engine.
package validation

import (
	"github.com/ChangoHQ/chango_backend/internal/utils"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators adds the application's custom binding tags.
// Call once at startup before routes are served.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	// msisdn accepts Kenyan mobile numbers in any common format; handlers
	// normalize before use.
	return v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return utils.IsValidMSISDN(utils.NormalizeMSISDN(fl.Field().String()))
	})
}
