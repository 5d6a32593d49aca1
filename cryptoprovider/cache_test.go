package cryptoprovider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerites-labs/opcua-seccore/policy"
)

func TestProviderCache_ReturnsSameInstance(t *testing.T) {
	c := NewProviderCache()

	p1, err := c.Get(policy.Basic256Sha256)
	require.NoError(t, err)
	p2, err := c.Get(policy.Basic256Sha256)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
}

func TestProviderCache_ConcurrentGetSharesConstruction(t *testing.T) {
	c := NewProviderCache()
	const n = 50

	results := make([]*Provider, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			p, err := c.Get(policy.Aes256Sha256RsaPss)
			require.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestProviderCache_UnknownURIErrors(t *testing.T) {
	c := NewProviderCache()
	_, err := c.Get("http://opcfoundation.org/UA/SecurityPolicy#NotReal")
	require.Error(t, err)
	assert.Equal(t, StatusInvalidParameters, Status(err))
}

func TestProviderCache_DistinctPoliciesDistinctInstances(t *testing.T) {
	c := NewProviderCache()
	p1, err := c.Get(policy.Basic256)
	require.NoError(t, err)
	p2, err := c.Get(policy.Basic256Sha256)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
}
