// Package parser splits doxx template documents into header and body and
// validates the result. Nothing in this package returns an error for a
// malformed document; problems are reported as values so concurrent
// workers can report them without unwinding.
package parser

import (
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/template/model"
)

// Split separates a raw template into its header and body.
//
// The document must contain the delimiter exactly twice. The preamble before
// the first delimiter is ignored and the first line terminator of the body is
// dropped. Any other shape yields an empty header and an empty body.
func Split(raw model.RawTemplate) (model.Header, string) {
	parts := strings.Split(raw.Text, model.Delimiter)
	if len(parts) != 3 {
		debug.Debug("[parser] Split: %s has %d delimiters, expected 2", raw.Location, len(parts)-1)
		return model.Header{}, ""
	}

	return parseHeader(raw.Location, parts[1]), trimLeadingNewline(parts[2])
}

func parseHeader(location, text string) model.Header {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		debug.Debug("[parser] parseHeader: %s: invalid YAML: %v", location, err)
		return model.Header{}
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return model.Header{}
	}

	mapping := node.Content[0]
	var h model.Header
	if err := mapping.Decode(&h); err != nil {
		debug.Debug("[parser] parseHeader: %s: cannot decode header: %v", location, err)
		return model.Header{}
	}
	h.Fields = len(mapping.Content) / 2
	return h
}

func trimLeadingNewline(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	OK      bool
	Message string
}

// Err converts a failed result into a TEMPLATE_MALFORMED error.
func (r ValidationResult) Err(location string) error {
	if r.OK {
		return nil
	}
	return errors.Newf(errors.ErrTemplateMalformed, "%s: %s", location, r.Message).
		WithDetail("template", location)
}

// Validate checks that a split template has a header and a body long enough
// to hold at least one placeholder.
func Validate(h model.Header, body string) ValidationResult {
	if h.IsEmpty() {
		return ValidationResult{
			Message: "missing header: include a metadata block between two " + model.Delimiter + " lines",
		}
	}
	if utf8.RuneCountInString(body) < model.MinBodyLength {
		return ValidationResult{
			Message: "template body is missing or too short",
		}
	}
	return ValidationResult{OK: true}
}
