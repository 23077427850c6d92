// file: utils/code_generator.go
package utils

import (
	"strings"

	"github.com/google/uuid"
)

// RandomToken returns a hex token of the requested length, built from as many
// UUIDs as needed. Errors out when the entropy source is unavailable.
func RandomToken(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	for sb.Len() < length {
		u, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.ReplaceAll(u.String(), "-", ""))
	}
	return sb.String()[:length], nil
}
