package service

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanbarret/wallet-attendance-system/core"
)

func TestIssue_SlotRounding(t *testing.T) {
	keys := newStaticKeys(t)
	issuer := NewTokenIssuer(keys, 10*time.Second)

	token, err := issuer.Issue(time.Unix(1700000007, 0))
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000), token.IssuedAt)
	assert.Equal(t, core.EncodeKey(keys.pub), token.ServerPublicKey)
	assert.Equal(t, core.TokenMessage(1700000000, token.ServerPublicKey), token.Message)
}

func TestIssue_DeterministicWithinSlot(t *testing.T) {
	issuer := NewTokenIssuer(newStaticKeys(t), 10*time.Second)

	a, err := issuer.Issue(time.Unix(1700000001, 0))
	require.NoError(t, err)
	b, err := issuer.Issue(time.Unix(1700000009, 0))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestIssue_RotatesAcrossSlots(t *testing.T) {
	issuer := NewTokenIssuer(newStaticKeys(t), 10*time.Second)

	a, err := issuer.Issue(time.Unix(1700000005, 0))
	require.NoError(t, err)
	b, err := issuer.Issue(time.Unix(1700000015, 0))
	require.NoError(t, err)

	assert.NotEqual(t, a.IssuedAt, b.IssuedAt)
	assert.NotEqual(t, a.Signature, b.Signature)
}

func TestIssue_ClockRollbackDoesNotReissueOldSlot(t *testing.T) {
	issuer := NewTokenIssuer(newStaticKeys(t), 10*time.Second)

	latest, err := issuer.Issue(time.Unix(1700000050, 0))
	require.NoError(t, err)

	// A rolled-back wall clock must not produce an earlier timestamp.
	rolled, err := issuer.Issue(time.Unix(1700000010, 0))
	require.NoError(t, err)
	assert.Equal(t, latest.IssuedAt, rolled.IssuedAt)
}

func TestIssue_SignatureVerifies(t *testing.T) {
	keys := newStaticKeys(t)
	issuer := NewTokenIssuer(keys, 10*time.Second)

	token, err := issuer.Issue(time.Unix(1700000000, 0))
	require.NoError(t, err)

	sig, err := core.DecodeSignature(token.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(keys.pub, []byte(token.Message), sig))
}
