package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "marketplace-api", TTL: time.Minute}
	tok, err := j.Issue("usr_000001", "buyer")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "usr_000001", c.UID)
	assert.Equal(t, "buyer", c.Role)
	assert.Equal(t, "usr_000001", c.Subject)
}

func TestParseRejects(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "marketplace-api", TTL: time.Minute}
	other := &JWTer{Secret: []byte("other"), Issuer: "marketplace-api", TTL: time.Minute}
	expired := &JWTer{Secret: []byte("s3cret"), Issuer: "marketplace-api", TTL: -time.Hour}

	forged, err := other.Issue("usr_000001", "admin")
	require.NoError(t, err)
	old, err := expired.Issue("usr_000001", "buyer")
	require.NoError(t, err)

	for name, tok := range map[string]string{"garbage": "abc.def", "wrong key": forged, "expired": old} {
		t.Run(name, func(t *testing.T) {
			_, err := j.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
