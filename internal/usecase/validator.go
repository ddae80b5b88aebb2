package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/user/internfinder/internal/entity"
)

// ErrValidation marks a batch rejected because at least one record broke the listing schema.
var ErrValidation = errors.New("listing batch failed validation")

// ValidationError describes one field of one record that broke a rule.
type ValidationError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Message)
}

// ListingValidator checks listing candidates against the schema tags on entity.Listing.
// It never consults the store, so duplicates pass.
type ListingValidator struct {
	validate *validator.Validate
}

func NewListingValidator() *ListingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &ListingValidator{validate: v}
}

// Validate returns one entry per violating field per record; an empty result means every record is valid.
func (lv *ListingValidator) Validate(listings []entity.Listing) []ValidationError {
	errs := []ValidationError{}
	for i := range listings {
		err := lv.validate.Struct(listings[i])
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs = append(errs, ValidationError{Index: i, Rule: "struct", Message: err.Error()})
			continue
		}

		seen := make(map[string]struct{}, len(fieldErrs))
		for _, fe := range fieldErrs {
			field := topField(fe.Field())
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}
			errs = append(errs, ValidationError{
				Index:   i,
				Field:   field,
				Rule:    fe.Tag(),
				Value:   fmt.Sprint(fe.Value()),
				Message: message(field, fe),
			})
		}
	}
	return errs
}

// topField maps an element path like fields[2] to its field name.
func topField(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be an absolute URL, got %q", field, fe.Value())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s, got %q", field, fe.Param(), fe.Value())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%s must be a two-letter country code, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
