// Package validation checks API requests and configuration values.
//
// Request checks use struct tags and map each failure to the exact message
// the HTTP API promises its clients.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/exp/slices"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	indexPattern = regexp.MustCompile(`\[\d+\]`)
)

// messages maps "Struct.Field:tag" to the client-facing message. Slice
// element failures use "Field[]". A %v verb receives the offending value.
var messages = map[string]string{
	"AddSynonymsRequest.Word:notblank":             "Missing 'word' argument",
	"AddSynonymsRequest.Synonyms:notblank":         "Missing synonym list body",
	"AddSynonymsRequest.Synonyms[]:notblank":       "Body contains synonym which is null or empty",
	"QuerySynonymsRequest.Word:notblank":           "Missing 'word' argument",
	"QuerySynonymsRequest.Limit:gt":                "The 'limit' must be larger than 0 but was %v",
	"DefineClusterRequest.ThisInstance:notblank":   "Missing 'thisInstance' argument",
	"DefineClusterRequest.AllInstances:notblank":   "Missing 'allInstances' argument",
	"DefineClusterRequest.AllInstances[]:notblank": "Body contains address which is null or empty",
	"DefineClusterRequest.ThisInstance:member":     "'thisInstance' is missing from 'allInstances' argument",
	"ImportRequest.Entries[].Word:notblank":        "Entry is missing its word",
	"ImportRequest.Entries[].Synonyms[]:notblank":  "Entry contains synonym which is null or empty",
}

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	validate.RegisterStructValidation(clusterMembership, DefineClusterRequest{})
}

// RequestError is a client error with a message safe to return verbatim.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// AddSynonymsRequest is a write of synonyms for one word.
type AddSynonymsRequest struct {
	Word     string   `validate:"notblank"`
	Synonyms []string `validate:"notblank,dive,notblank"`
}

// QuerySynonymsRequest asks for a page of synonyms.
type QuerySynonymsRequest struct {
	Word  string `validate:"notblank"`
	Limit int    `validate:"gt=0"`
}

// DefineClusterRequest sets the cluster membership.
type DefineClusterRequest struct {
	ThisInstance string   `validate:"notblank"`
	AllInstances []string `validate:"notblank,dive,notblank"`
}

// ImportEntry mirrors one bulk import entry. Its synonym list may be empty.
type ImportEntry struct {
	Word     string   `validate:"notblank"`
	Synonyms []string `validate:"dive,notblank"`
}

// ImportRequest is a bulk import.
type ImportRequest struct {
	Entries []ImportEntry `validate:"dive"`
}

func clusterMembership(sl validator.StructLevel) {
	var req DefineClusterRequest
	switch v := sl.Current().Interface().(type) {
	case DefineClusterRequest:
		req = v
	case *DefineClusterRequest:
		req = *v
	}
	if req.ThisInstance == "" || len(req.AllInstances) == 0 {
		return
	}
	if !slices.Contains(req.AllInstances, req.ThisInstance) {
		sl.ReportError(req.ThisInstance, "ThisInstance", "ThisInstance", "member", "")
	}
}

// Struct validates a request and returns a *RequestError for the first
// failing field, in declaration order.
func Struct(req any) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	return formatValidationError(validate.Struct(req))
}

// formatValidationError converts validator errors to the API's messages
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := indexPattern.ReplaceAllString(e.StructNamespace(), "[]")
		if msg, ok := messages[field+":"+e.Tag()]; ok {
			if strings.Contains(msg, "%v") {
				msg = fmt.Sprintf(msg, e.Value())
			}
			return &RequestError{Field: e.Field(), Message: msg}
		}

		switch e.Tag() {
		case "notblank", "required":
			return &RequestError{Field: e.Field(), Message: fmt.Sprintf("%s: field is required", e.Field())}
		case "gt", "min":
			return &RequestError{Field: e.Field(), Message: fmt.Sprintf("%s: must be at least %s", e.Field(), e.Param())}
		default:
			return &RequestError{Field: e.Field(), Message: fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag())}
		}
	}

	return err
}
