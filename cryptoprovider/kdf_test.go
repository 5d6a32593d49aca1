package cryptoprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerites-labs/opcua-seccore/policy"
	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

func TestDerivePseudoRandomData_DeterministicAndLengthExact(t *testing.T) {
	p, err := New(policy.Basic256Sha256)
	require.NoError(t, err)

	secret := []byte("a-shared-secret-value")
	seed := []byte("a-seed-value")

	out1, err := p.DerivePseudoRandomData(secret, seed, 96)
	require.NoError(t, err)
	assert.Len(t, out1, 96)

	out2, err := p.DerivePseudoRandomData(secret, seed, 96)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)

	// Changing the seed must change the output.
	out3, err := p.DerivePseudoRandomData(secret, []byte("different-seed"), 96)
	require.NoError(t, err)
	assert.NotEqual(t, out1, out3)
}

func TestDerivePseudoRandomData_PrefixStable(t *testing.T) {
	// P_hash output for a shorter out_len must be a prefix of the output
	// for a longer out_len, since the A(i) chain is independent of outLen.
	p, err := New(policy.Basic256Sha256)
	require.NoError(t, err)

	secret := []byte("secret")
	seed := []byte("seed")

	short, err := p.DerivePseudoRandomData(secret, seed, 32)
	require.NoError(t, err)
	long, err := p.DerivePseudoRandomData(secret, seed, 100)
	require.NoError(t, err)

	assert.Equal(t, short, long[:32])
}

func TestDeriveKeySets_ClientServerEqualityAndLengths(t *testing.T) {
	for _, uri := range []policy.URI{policy.Basic256, policy.Basic256Sha256, policy.Aes128Sha256RsaOaep, policy.Aes256Sha256RsaPss} {
		p, err := New(uri)
		require.NoError(t, err)

		cn := []byte("client-nonce-material-0123456789")
		sn := []byte("server-nonce-material-9876543210")

		c1, s1, err := p.DeriveKeySets(cn, sn)
		require.NoError(t, err)
		c2, s2, err := p.DeriveKeySets(cn, sn)
		require.NoError(t, err)

		c1sign, _ := c1.SignKey.Expose()
		c2sign, _ := c2.SignKey.Expose()
		assert.Equal(t, c1sign, c2sign, "client key set must be deterministic for %s", uri)

		s1sign, _ := s1.SignKey.Expose()
		s2sign, _ := s2.SignKey.Expose()
		assert.Equal(t, s1sign, s2sign, "server key set must be deterministic for %s", uri)

		signLen, err := p.SymmetricSignKeyLength()
		require.NoError(t, err)
		encLen, err := p.SymmetricKeyLength()
		require.NoError(t, err)
		ivLen, err := p.SymmetricBlockSize()
		require.NoError(t, err)

		assert.Equal(t, signLen, c1.SignKey.Length())
		assert.Equal(t, encLen, c1.EncryptKey.Length())
		assert.Equal(t, ivLen, c1.InitVector.Length())
		assert.Equal(t, signLen, s1.SignKey.Length())
		assert.Equal(t, encLen, s1.EncryptKey.Length())
		assert.Equal(t, ivLen, s1.InitVector.Length())

		c1.Clear()
		s1.Clear()
		c2.Clear()
		s2.Clear()
	}
}

func TestDeriveKeySets_ClientAndServerSetsDiffer(t *testing.T) {
	p, err := New(policy.Basic256Sha256)
	require.NoError(t, err)

	cn := []byte("client-nonce-material-0123456789")
	sn := []byte("server-nonce-material-9876543210")

	client, server, err := p.DeriveKeySets(cn, sn)
	require.NoError(t, err)
	defer client.Clear()
	defer server.Clear()

	cSign, _ := client.SignKey.Expose()
	sSign, _ := server.SignKey.Expose()
	assert.NotEqual(t, cSign, sSign)
}

func TestDeriveKeySetsClientServer_HelpersMatchPlainForm(t *testing.T) {
	p, err := New(policy.Basic256Sha256)
	require.NoError(t, err)

	cn := []byte("client-nonce-material-0123456789")
	sn := []byte("server-nonce-material-9876543210")

	wantClient, wantServer, err := p.DeriveKeySets(cn, sn)
	require.NoError(t, err)
	defer wantClient.Clear()
	defer wantServer.Clear()

	cnBuf, err := secretbuf.NewFromExposed(cn)
	require.NoError(t, err)
	defer cnBuf.DeleteClear()

	gotClient, gotServer, err := p.DeriveKeySetsClient(cnBuf, sn)
	require.NoError(t, err)
	defer gotClient.Clear()
	defer gotServer.Clear()

	wantSign, _ := wantClient.SignKey.Expose()
	gotSign, _ := gotClient.SignKey.Expose()
	assert.Equal(t, wantSign, gotSign)

	snBuf, err := secretbuf.NewFromExposed(sn)
	require.NoError(t, err)
	defer snBuf.DeleteClear()

	gotClient2, gotServer2, err := p.DeriveKeySetsServer(cn, snBuf)
	require.NoError(t, err)
	defer gotClient2.Clear()
	defer gotServer2.Clear()

	wantServerSign, _ := wantServer.SignKey.Expose()
	gotServerSign, _ := gotServer2.SignKey.Expose()
	assert.Equal(t, wantServerSign, gotServerSign)
}

func TestDeriveKeySets_RejectsEmptyNonce(t *testing.T) {
	p, err := New(policy.Basic256Sha256)
	require.NoError(t, err)

	_, _, err = p.DeriveKeySets(nil, []byte("server-nonce"))
	require.Error(t, err)
	assert.Equal(t, StatusInvalidParameters, Status(err))
}
