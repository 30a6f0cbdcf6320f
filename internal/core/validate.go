package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct runs the struct tags and collects the failures into ve.
func checkStruct(ve *ValidationError, s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.add("input", "%v", err)
		return
	}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: tagMessage(fe)})
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	}
	return "failed " + fe.Tag() + " check"
}

func checkActingUser(ve *ValidationError, actingUser string) {
	if strings.TrimSpace(actingUser) == "" {
		ve.add("acting_user", "is required")
	}
}

func checkPositiveRate(ve *ValidationError, field string, rate decimal.Decimal) {
	if !rate.IsPositive() {
		ve.add(field, "must be greater than 0")
	}
}

func validateNewOrder(in NewOrderInput, actingUser string) error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	if in.Rate.IsNegative() {
		ve.add("rate", "must not be negative")
	}
	checkActingUser(ve, actingUser)
	return ve.orNil()
}

func validateRevision(in ReviseOrderInput) error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	if in.Rate != nil && in.Rate.IsNegative() {
		ve.add("rate", "must not be negative")
	}
	return ve.orNil()
}

// Validate checks a fabric purchase form.
func (in FabricPurchaseInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks a dyeing dispatch form.
func (in DyeingSentInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks a dyeing receipt form. Shrinkage must lie in [0, 100].
func (in DyeingReceivedInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	if in.ShrinkagePercent.IsNegative() || in.ShrinkagePercent.GreaterThan(hundred) {
		ve.add("shrinkage_in_percentage", "must be between 0 and 100")
	}
	return ve.orNil()
}

// Validate checks a cloth cutting form.
func (in ClothCuttingInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks a stitching form.
func (in StitchingInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks an extra work form.
func (in ExtraWorkInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks a finishing and packing form.
func (in FinishingAndPackingInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	checkPositiveRate(ve, "rate", in.Rate)
	return ve.orNil()
}

// Validate checks a dispatch form.
func (in DispatchInput) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, in)
	return ve.orNil()
}

// withActingUser merges the acting-user check into a form validation result.
func withActingUser(err error, actingUser string) error {
	ve := &ValidationError{}
	if err != nil {
		var existing *ValidationError
		if !errors.As(err, &existing) {
			return err
		}
		ve.Fields = append(ve.Fields, existing.Fields...)
	}
	checkActingUser(ve, actingUser)
	return ve.orNil()
}
