package handler

import (
	"errors"

	"attendance_tracker/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the sign-up rules used in request binding tags.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return utils.IsStrongPassword(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("refcode", func(fl validator.FieldLevel) bool {
		return utils.IsReferenceCode(utils.NormalizeReferenceCode(fl.Field().String()))
	})
}
