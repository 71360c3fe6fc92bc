package grading

import (
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/gradebook/core"
)

var (
	sexTag  = "sex"
	sexText = "sex must be either M or F"

	gradeValueTag  = "gradevalue"
	gradeValueText = "grade must be between 0.00 and 5.00"

	percentageTag  = "percentage"
	percentageText = "percentage must be between 0.01 and 100.00"

	cutNumberText = "number must be between 1 and 10"

	twoDecimalsTag  = "twodp"
	twoDecimalsText = "at most 2 decimal places are allowed"
)

// InitValidators registers the grading validators and their translations.
// core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// decimals are validated through their string form
	validate.RegisterCustomTypeFunc(decimalString, decimal.Decimal{})

	_ = validate.RegisterValidation(sexTag, sexValidation)
	core.RegisterCustomTranslation(validate, translator, sexTag, sexText)

	_ = validate.RegisterValidation(gradeValueTag, gradeValueValidation)
	core.RegisterCustomTranslation(validate, translator, gradeValueTag, gradeValueText)

	_ = validate.RegisterValidation(percentageTag, percentageValidation)
	core.RegisterCustomTranslation(validate, translator, percentageTag, percentageText)

	_ = validate.RegisterValidation(twoDecimalsTag, twoDecimalsValidation)
	core.RegisterCustomTranslation(validate, translator, twoDecimalsTag, twoDecimalsText)
}

func decimalString(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

func inRange(d, min, max decimal.Decimal) bool {
	return d.GreaterThanOrEqual(min) && d.LessThanOrEqual(max)
}

// Custom Validators

func sexValidation(fl validator.FieldLevel) bool {
	_, ok := ParseSex(fl.Field().String())
	return ok
}

func gradeValueValidation(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && inRange(d, MinGrade, MaxGrade)
}

func percentageValidation(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && inRange(d, MinPercentage, MaxPercentage)
}

func twoDecimalsValidation(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && d.Equal(d.Round(2))
}
