package id

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque correlation ids for inbound requests.
type Generator interface {
	NewID() string
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

var safeIDRegex = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Sanitize keeps a caller-supplied id only when it is short and free of control characters,
// so it can be echoed into logs and outbound headers.
func Sanitize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !safeIDRegex.MatchString(raw) {
		return "", false
	}
	return raw, true
}
