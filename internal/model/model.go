package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern accepts local-part@domain.tld where the top level domain has at least two letters.
var emailPattern = regexp.MustCompile(`^[\w.%+-]+@[\w.%+-]+\.[A-Za-z]{2,}$`)

// phonePattern accepts exactly ten ASCII digits.
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Field names of a contact as they appear on the wire. They double as sort and filter keys.
const (
	FieldID        = "id"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhoneNo   = "phoneNo"
	FieldCompany   = "company"
	FieldJobTitle  = "jobTitle"
)

// Fields lists the contact attributes in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPhoneNo, FieldCompany, FieldJobTitle}

// Draft is a contact that has not been assigned an id yet. It is the payload of a creation
// request and the replaceable part of an existing contact.
type Draft struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,contactemail"`
	PhoneNo   string `json:"phoneNo"   validate:"required,phoneno"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobTitle"`
}

// Contact is the data structure for a person that we know. The id is assigned by the store on
// creation and never changes afterwards.
type Contact struct {
	ID string `json:"id"`
	Draft
}

// Field returns the text value of the named attribute. Unknown names yield the empty string.
func (c Contact) Field(name string) string {
	switch name {
	case FieldID:
		return c.ID
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldEmail:
		return c.Email
	case FieldPhoneNo:
		return c.PhoneNo
	case FieldCompany:
		return c.Company
	case FieldJobTitle:
		return c.JobTitle
	}
	return ""
}

// IsField reports whether name is one of the contact attribute names, including the id.
func IsField(name string) bool {
	return name == FieldID || slices.Contains(Fields, name)
}

// ValidateEmail returns true if text looks like a well-formed email address.
func ValidateEmail(text string) bool {
	return emailPattern.MatchString(text)
}

// ValidatePhone returns true if text consists of exactly ten decimal digits.
func ValidatePhone(text string) bool {
	return phonePattern.MatchString(text)
}

// validate holds the struct validator with the contact specific rules registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so that messages match the request body.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("phoneno", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a draft against the contact schema. It returns one message per violated field,
// in field order, or nil if the draft is valid.
func Validate(d Draft) []string {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, message(fe))
	}
	return messages
}

// message turns a single field violation into a user facing text.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "contactemail":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "phoneno":
		return fmt.Sprintf("%s must be exactly 10 digits", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
