package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// Validator combines struct tag validation with the paper structure checks
type Validator struct {
	structValidator *validator.Validate
	paperValidator  *PaperValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		paperValidator:  newPaperValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return ToValidationErrors(fieldErrs)
	}
	return err
}

// Paper returns the paper validator
func (v *Validator) Paper() *PaperValidator {
	return v.paperValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", oneOf(
		models.TypeMCQ,
		models.TypeTrueFalse,
		models.TypeDescriptive,
	))

	validate.RegisterValidation("difficulty_level", oneOf(
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	))

	validate.RegisterValidation("answer_requirement", oneOf(
		models.RequirementAnyOneFrom,
		models.RequirementAnyTwoFrom,
		models.RequirementAnyThreeFrom,
		models.RequirementBothRequired,
		models.RequirementAllRequired,
		models.RequirementAlternativeMethods,
		models.RequirementAcceptableVariations,
	))

	validate.RegisterValidation("session_mode", oneOf(
		models.ModePractice,
		models.ModeTimed,
		models.ModeReview,
		models.ModeQA,
	))

	validate.RegisterValidation("session_key", oneOf("left", "right", "escape"))

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func oneOf[T ~string](valid ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, v := range valid {
			if string(v) == value {
				return true
			}
		}
		return false
	}
}
