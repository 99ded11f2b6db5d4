package domain

import (
	"regexp"
	"strings"
)

// MAC is a canonical six-octet device identity in uppercase colon-separated
// form, e.g. "3C:71:BF:AA:BB:CC". It is the only durable identity for a
// device across port changes; serial port paths are reused and must never be
// treated as identities.
type MAC string

// macPattern matches the identity line emitted by the device console in
// response to the "id" command. Octets are matched case-insensitively and
// arbitrary whitespace is allowed after the label.
var macPattern = regexp.MustCompile(`MAC:\s*([0-9A-Fa-f]{2}:[0-9A-Fa-f]{2}:[0-9A-Fa-f]{2}:[0-9A-Fa-f]{2}:[0-9A-Fa-f]{2}:[0-9A-Fa-f]{2})`)

// ParseMAC extracts the first device identity from a console response and
// normalizes it to canonical uppercase form.
// Returns ErrIdentityParse if the response contains no well-formed identity.
func ParseMAC(response string) (MAC, error) {
	m := macPattern.FindStringSubmatch(response)
	if m == nil {
		return "", ErrIdentityParse
	}
	return MAC(strings.ToUpper(m[1])), nil
}

// String returns the canonical string form of the identity.
func (m MAC) String() string {
	return string(m)
}
