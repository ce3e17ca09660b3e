package student

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
)

var (
	matricTag   = "matric"
	matricText  = "invalid matric number (expected CFJ/ND/COM/YYYY/NNN or CFJ/HND/COM/YYYY/NNN)"
	matricRegex = regexp.MustCompile(`(?i)^CFJ/(ND|HND)/COM/\d{4}/\d{3}$`)

	levelTag  = "level"
	levelText = "level must be one of ND1, ND2, HND1 or HND2"
)

// InitValidators registers the student validators and their translations.
// The "level" tag is shared with courses.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(matricTag, matricValidation)
	core.RegisterCustomTranslation(validate, translator, matricTag, matricText)

	_ = validate.RegisterValidation(levelTag, levelValidation)
	core.RegisterCustomTranslation(validate, translator, levelTag, levelText)
}

// IsMatricNumber reports whether s looks like a matric number of the college (case-insensitive).
func IsMatricNumber(s string) bool {
	return matricRegex.MatchString(s)
}

func IsLevel(s string) bool {
	for _, lvl := range Levels {
		if s == lvl {
			return true
		}
	}
	return false
}

// Custom Validators

func matricValidation(fl validator.FieldLevel) bool {
	return IsMatricNumber(fl.Field().String())
}

func levelValidation(fl validator.FieldLevel) bool {
	return IsLevel(fl.Field().String())
}
