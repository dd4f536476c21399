package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"attendance-portal/internal/model"
)

var registerOnce sync.Once

// registerValidators adds the attendance_status tag to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
			_, err := model.ParseStatus(fl.Field().String())
			return err == nil
		})
	})
}
