package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"User@Example.com":     "user@example.com",
		"  padded@ustatop.uz ": "padded@ustatop.uz",
		"already@lower.uz":     "already@lower.uz",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeEmail(in))
	}
}

func TestEmailDomainResolvesRejectsMalformed(t *testing.T) {
	// No lookups happen for addresses without a usable domain part.
	assert.False(t, EmailDomainResolves("no-at-sign"))
	assert.False(t, EmailDomainResolves("trailing@"))
}
