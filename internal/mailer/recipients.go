package mailer

import (
	"regexp"
	"strings"

	"bizkit/internal/model"
)

var (
	addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	separators     = regexp.MustCompile(`[,;\n]`)
)

// IsValidAddress is a shape check only; it does not resolve the domain.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// SplitAddresses splits on commas, semicolons and newlines and drops blanks.
func SplitAddresses(input string) []string {
	parts := separators.Split(input, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseRecipients returns the new valid recipients in input order. Invalid
// entries and emails already in existing or earlier in input are dropped.
func ParseRecipients(input string, existing []model.Recipient) []model.Recipient {
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.Email] = struct{}{}
	}

	var out []model.Recipient
	for _, addr := range SplitAddresses(input) {
		if !IsValidAddress(addr) {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, model.Recipient{Email: addr, Name: addr[:strings.IndexByte(addr, '@')]})
	}
	return out
}

// ValidationResult is the /validate-emails response body.
type ValidationResult struct {
	Valid      []string `json:"valid"`
	Invalid    []string `json:"invalid"`
	Duplicates []string `json:"duplicates"`
}

// ValidateAddresses sorts each address into exactly one bucket. The first
// occurrence of a valid address is valid; later ones are duplicates.
func ValidateAddresses(list []string) ValidationResult {
	res := ValidationResult{Valid: []string{}, Invalid: []string{}, Duplicates: []string{}}
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		addr := strings.TrimSpace(raw)
		switch {
		case !IsValidAddress(addr):
			res.Invalid = append(res.Invalid, addr)
		default:
			if _, dup := seen[addr]; dup {
				res.Duplicates = append(res.Duplicates, addr)
				continue
			}
			seen[addr] = struct{}{}
			res.Valid = append(res.Valid, addr)
		}
	}
	return res
}
