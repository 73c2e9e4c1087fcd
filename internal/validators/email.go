package validators

import (
	"net"
	"strings"
)

// NormalizeEmail lowercases and trims an address so the unique index
// on users.email treats User@Example.com and user@example.com as the
// same account.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// EmailDomainResolves reports whether the address's domain has MX or
// address records. Registration rejects addresses nothing could ever
// deliver to; the shape of the address is checked by request binding
// before this runs.
func EmailDomainResolves(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}
