package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	d1 := Hash([]byte("hello"))
	d2 := Hash([]byte("hello"))
	assert.Equal(t, d1, d2)
}

func TestHashDiffersOnOneByte(t *testing.T) {
	d1 := Hash([]byte("hello"))
	d2 := Hash([]byte("hellp"))
	assert.NotEqual(t, d1, d2)
}

func TestHashPairOrderMatters(t *testing.T) {
	a := Hash([]byte("a"))
	b := Hash([]byte("b"))
	assert.NotEqual(t, HashPair(a, b), HashPair(b, a))
}

func TestDigestLess(t *testing.T) {
	var lo, hi Digest
	lo[0] = 0x01
	hi[0] = 0x02
	assert.True(t, lo.Less(hi))
	assert.False(t, hi.Less(lo))
	assert.False(t, lo.Less(lo))
}

func TestZeroDigest(t *testing.T) {
	var d Digest
	assert.True(t, d.IsZero())
	d[31] = 1
	assert.False(t, d.IsZero())
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)

	pub := DerivePublicKey(seed)
	msg := []byte("time for tea")
	sig := Sign(seed, msg)

	assert.True(t, Verify(pub, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)

	pub := DerivePublicKey(seed)
	sig := Sign(seed, []byte("original"))

	assert.False(t, Verify(pub, []byte("tampered"), sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	seedA, err := GenerateSeed()
	require.NoError(t, err)
	seedB, err := GenerateSeed()
	require.NoError(t, err)

	pubB := DerivePublicKey(seedB)
	msg := []byte("who signed this")
	sig := Sign(seedA, msg)

	assert.False(t, Verify(pubB, msg, sig))
}
