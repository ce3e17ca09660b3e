package session

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
)

var (
	endAfterTag  = "endafter"
	endAfterText = "end time must be after start time"
)

// InitValidators registers the session validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(endAfterTag, endAfterValidation)
	core.RegisterCustomTranslation(validate, translator, endAfterTag, endAfterText)
}

// endAfterValidation checks that EndTime is later than the StartTime sibling field.
func endAfterValidation(fl validator.FieldLevel) bool {
	start := fl.Parent().FieldByName("StartTime")
	if !start.IsValid() {
		return false
	}
	st, err := time.Parse(attendance.TimeLayout, start.String())
	if err != nil {
		return true // reported by "datetime"
	}
	et, err := time.Parse(attendance.TimeLayout, fl.Field().String())
	if err != nil {
		return true
	}
	return et.After(st)
}
