package httpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	s := &Server{adminSecret: []byte("test-secret")}

	tok, exp, err := s.issueAdminToken("ana@dailybrew.dev", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	email, err := s.verifyAdminToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana@dailybrew.dev", email)
}

func TestAdminTokenExpired(t *testing.T) {
	s := &Server{adminSecret: []byte("test-secret")}
	tok, _, err := s.issueAdminToken("ana@dailybrew.dev", -time.Minute)
	require.NoError(t, err)

	_, err = s.verifyAdminToken(tok)
	assert.Error(t, err)
}

func TestAdminTokenRejectsWrongSecret(t *testing.T) {
	issuer := &Server{adminSecret: []byte("secret-a")}
	verifier := &Server{adminSecret: []byte("secret-b")}

	tok, _, err := issuer.issueAdminToken("ana@dailybrew.dev", time.Hour)
	require.NoError(t, err)

	_, err = verifier.verifyAdminToken(tok)
	assert.Error(t, err)
}

func TestAdminTokenRejectsGarbage(t *testing.T) {
	s := &Server{adminSecret: []byte("test-secret")}
	for _, tok := range []string{"", "noseparator", "a.b", "!!!.???"} {
		_, err := s.verifyAdminToken(tok)
		assert.Error(t, err, tok)
	}
}
