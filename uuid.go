package manacube

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// normalizeUUID returns the canonical dashed lower-case form of value. With
// the safe check off, value is only trimmed.
func (c *Client) normalizeUUID(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	if !c.SafeUUIDCheck() {
		return value, nil
	}

	parsed, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidUUID, name, value)
	}
	return parsed.String(), nil
}
