package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var weekdays = map[string]bool{
	"Monday":    true,
	"Tuesday":   true,
	"Wednesday": true,
	"Thursday":  true,
	"Friday":    true,
	"Saturday":  true,
	"Sunday":    true,
}

// RegisterCustomValidations installs domain validations on gin's
// binding engine. Call once at startup before the router is built.
func RegisterCustomValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

// validateHHMM accepts 24h clock times like "09:00" or "17:30".
func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	return weekdays[fl.Field().String()]
}
