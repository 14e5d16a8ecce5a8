// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"
)

var idPrefixPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// RequiredField returns a criterio validator for required text.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}

// IDPrefix validates a notification id prefix: lowercase alphanumerics and
// hyphens, not starting with a hyphen.
func IDPrefix(prefix string) error {
	if !idPrefixPattern.MatchString(prefix) {
		return fmt.Errorf("must match %s", idPrefixPattern.String())
	}
	return nil
}

// IDPrefixField returns a criterio validator for id prefixes.
func IDPrefixField(field, prefix string) error {
	return criterio.Run(field, prefix, IDPrefix)
}
