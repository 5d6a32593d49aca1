package pki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCertFile(t *testing.T, dir, name string, cert *x509.Certificate) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func writeCRLFile(t *testing.T, dir, name string, crl *x509.RevocationList) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: crl.Raw})
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func makeCA(t *testing.T, cn string, serial int64) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour * 24 * 365),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func signLeaf(t *testing.T, cn string, serial int64, issuer *x509.Certificate, issuerKey *rsa.PrivateKey, notAfter time.Time) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuer, &key.PublicKey, issuerKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func emptyCRL(t *testing.T, issuer *x509.Certificate, issuerKey *rsa.PrivateKey) *x509.RevocationList {
	t.Helper()
	tmpl := &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now().Add(-time.Hour),
		NextUpdate: time.Now().Add(time.Hour * 24 * 365),
	}
	der, err := x509.CreateRevocationList(rand.Reader, tmpl, issuer, issuerKey)
	require.NoError(t, err)
	crl, err := x509.ParseRevocationList(der)
	require.NoError(t, err)
	return crl
}

func TestValidate_TrustedRootTerminatesChain(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))
	crl := emptyCRL(t, root, rootKey)

	v, err := NewMinimal(root, crl)
	require.NoError(t, err)

	assert.Equal(t, ErrorNone, v.Validate(leaf))
}

func TestValidate_RevokedLeafFails(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))

	tmpl := &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now().Add(-time.Hour),
		NextUpdate: time.Now().Add(time.Hour * 24 * 365),
		RevokedCertificateEntries: []x509.RevocationListEntry{
			{SerialNumber: leaf.SerialNumber, RevocationTime: time.Now()},
		},
	}
	der, err := x509.CreateRevocationList(rand.Reader, tmpl, root, rootKey)
	require.NoError(t, err)
	crl, err := x509.ParseRevocationList(der)
	require.NoError(t, err)

	v, err := NewMinimal(root, crl)
	require.NoError(t, err)

	assert.Equal(t, ErrorRevoked, v.Validate(leaf))
}

func TestValidate_ExpiredCertificate(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(-time.Hour))
	crl := emptyCRL(t, root, rootKey)

	v, err := NewMinimal(root, crl)
	require.NoError(t, err)

	assert.Equal(t, ErrorExpired, v.Validate(leaf))
}

func TestValidate_UntrustedCertificateRejected(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	crl := emptyCRL(t, root, rootKey)
	v, err := NewMinimal(root, crl)
	require.NoError(t, err)

	otherRoot, otherKey := makeCA(t, "other-root", 99)
	strangerLeaf := signLeaf(t, "stranger", 100, otherRoot, otherKey, time.Now().Add(time.Hour*24*30))

	assert.Equal(t, ErrorUntrusted, v.Validate(strangerLeaf))
}

func TestValidate_IssuedCertTrustedButChainMustBeTraceable(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))
	crl := emptyCRL(t, root, rootKey)

	v, err := NewFromPaths(PathConfig{
		TrustedRoots: []*x509.Certificate{root},
		IssuedCerts:  []*x509.Certificate{leaf},
		CRLs:         []*x509.RevocationList{crl},
	})
	require.NoError(t, err)

	assert.Equal(t, ErrorNone, v.Validate(leaf))
}

func TestValidate_ChainThroughIntermediate(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	intermediate, intKey := makeCA(t, "intermediate", 2)
	intermediate.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign

	der, err := x509.CreateCertificate(rand.Reader, intermediate, root, &intKey.PublicKey, rootKey)
	require.NoError(t, err)
	intermediateSigned, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	leaf := signLeaf(t, "leaf", 3, intermediateSigned, intKey, time.Now().Add(time.Hour*24*30))

	rootCRL := emptyCRL(t, root, rootKey)
	intCRL := emptyCRL(t, intermediateSigned, intKey)

	v, err := NewFromPaths(PathConfig{
		TrustedRoots:         []*x509.Certificate{root},
		TrustedIntermediates: []*x509.Certificate{intermediateSigned}, // child-before-parent: single entry here
		CRLs:                 []*x509.RevocationList{rootCRL, intCRL},
	})
	require.NoError(t, err)

	assert.Equal(t, ErrorNone, v.Validate(leaf))
}

func TestNewFromPaths_MissingCRLIsConfigurationError(t *testing.T) {
	root, _ := makeCA(t, "root", 1)

	_, err := NewFromPaths(PathConfig{
		TrustedRoots: []*x509.Certificate{root},
	})
	require.ErrorIs(t, err, ErrMissingCRLForIssuer)
}

func TestValidate_PKIMonotonicity(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))

	empty, err := NewFromPaths(PathConfig{})
	require.NoError(t, err)
	assert.NotEqual(t, ErrorNone, empty.Validate(leaf))

	crl := emptyCRL(t, root, rootKey)
	withRoot, err := NewFromPaths(PathConfig{
		TrustedRoots: []*x509.Certificate{root},
		CRLs:         []*x509.RevocationList{crl},
	})
	require.NoError(t, err)
	assert.Equal(t, ErrorNone, withRoot.Validate(leaf))
}

func TestNewFromStore_TrustedRootTerminatesChain(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))
	crl := emptyCRL(t, root, rootKey)

	rootsDir := t.TempDir()
	crlsDir := t.TempDir()
	writeCertFile(t, rootsDir, "root.pem", root)
	writeCRLFile(t, crlsDir, "root.crl", crl)

	v, err := NewFromStore(StoreLayout{
		TrustedRootsDir: rootsDir,
		CRLsDir:         crlsDir,
	})
	require.NoError(t, err)

	assert.Equal(t, ErrorNone, v.Validate(leaf))
}

func TestNewFromStore_UntrustedDirLeavesCertUnrecognized(t *testing.T) {
	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))
	crl := emptyCRL(t, root, rootKey)

	untrustedDir := t.TempDir()
	crlsDir := t.TempDir()
	writeCertFile(t, untrustedDir, "root.pem", root)
	writeCRLFile(t, crlsDir, "root.crl", crl)

	v, err := NewFromStore(StoreLayout{
		UntrustedRootsDir: untrustedDir,
		CRLsDir:           crlsDir,
	})
	require.NoError(t, err)

	assert.Equal(t, ErrorUntrusted, v.Validate(leaf))
}

func TestNewFromStore_MissingCRLIsConfigurationError(t *testing.T) {
	root, _ := makeCA(t, "root", 1)

	rootsDir := t.TempDir()
	writeCertFile(t, rootsDir, "root.pem", root)

	_, err := NewFromStore(StoreLayout{TrustedRootsDir: rootsDir})
	require.ErrorIs(t, err, ErrMissingCRLForIssuer)
}

func TestNewFromStore_EmptyLayoutYieldsEmptyValidator(t *testing.T) {
	v, err := NewFromStore(StoreLayout{})
	require.NoError(t, err)

	root, rootKey := makeCA(t, "root", 1)
	leaf := signLeaf(t, "leaf", 2, root, rootKey, time.Now().Add(time.Hour*24*30))
	assert.NotEqual(t, ErrorNone, v.Validate(leaf))
}

func TestNewFromStore_NonexistentDirFails(t *testing.T) {
	_, err := NewFromStore(StoreLayout{TrustedRootsDir: filepath.Join(t.TempDir(), "does-not-exist")})
	require.Error(t, err)
}
