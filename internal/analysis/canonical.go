package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// DefaultCanonicalNamePath locates the legal name inside an analysis document
const DefaultCanonicalNamePath = "company_basic_info.company_legal_name"

// ValidateCanonicalNamePath reports whether expr is a valid JMESPath expression
func ValidateCanonicalNamePath(expr string) error {
	if _, err := jmespath.Compile(expr); err != nil {
		return fmt.Errorf("invalid canonical name path %q: %w", expr, err)
	}
	return nil
}

// CanonicalName evaluates expr against doc. It returns nil when the value is
// missing or is not a non-empty string.
func CanonicalName(doc json.RawMessage, expr string) *string {
	var data interface{}
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil
	}

	value, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}

	name, ok := value.(string)
	if !ok {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}
