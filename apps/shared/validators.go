package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
)

// NewValidator returns a validator knowing every custom tag of the application, with english messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()

	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	session.InitValidators(validate, translator)
	return validate, translator
}
