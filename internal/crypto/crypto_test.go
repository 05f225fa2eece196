package crypto

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known test vector: private key 0x...01 derives this address.
const (
	testPrivKey  = "0000000000000000000000000000000000000000000000000000000000000001"
	testAddrHex  = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	testChainID  = 137
	testPassword = "correct horse battery staple"
)

func TestSignerAddress(t *testing.T) {
	s, err := NewSigner(testPrivKey, testChainID)
	require.NoError(t, err)
	assert.Equal(t, testAddrHex, s.Address().Hex())

	// 0x prefix is accepted too.
	s2, err := NewSigner("0x"+testPrivKey, testChainID)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), s2.Address())
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	_, err := NewSigner("not-hex", testChainID)
	require.Error(t, err)
}

func TestSignAuthMessageShape(t *testing.T) {
	s, err := NewSigner(testPrivKey, testChainID)
	require.NoError(t, err)

	sig, err := s.SignAuthMessage(s.Address().Hex(), 1700000000, 0)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(sig, "0x"))
	// 65 bytes hex encoded.
	assert.Len(t, sig, 2+130)

	// Deterministic signing: same inputs, same signature.
	sig2, err := s.SignAuthMessage(s.Address().Hex(), 1700000000, 0)
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestSignOrder(t *testing.T) {
	s, err := NewSigner(testPrivKey, testChainID)
	require.NoError(t, err)

	payload := OrderPayload{
		Salt:          "12345",
		Maker:         s.Address().Hex(),
		Signer:        s.Address().Hex(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount:   "10000000",
		TakerAmount:   "25000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}

	sig, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.Len(t, sig, 2+130)

	// Changing any signed field must change the signature.
	payload.MakerAmount = "10000001"
	sig2, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.NotEqual(t, sig, sig2)
}

func TestSignOrderRejectsBadNumerics(t *testing.T) {
	s, err := NewSigner(testPrivKey, testChainID)
	require.NoError(t, err)

	_, err = s.SignOrder(OrderPayload{Salt: "xyz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt")
}

func TestL2HeadersDeterministic(t *testing.T) {
	auth := &HMACAuth{
		Key:        "key-123",
		Secret:     base64.StdEncoding.EncodeToString([]byte("super-secret")),
		Passphrase: "pass",
	}

	h1 := auth.L2HeadersAt(testAddrHex, "POST", "/order", `{"x":1}`, 1700000000)
	h2 := auth.L2HeadersAt(testAddrHex, "POST", "/order", `{"x":1}`, 1700000000)
	assert.Equal(t, h1, h2)

	assert.Equal(t, testAddrHex, h1["POLY_ADDRESS"])
	assert.Equal(t, "key-123", h1["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h1["POLY_TIMESTAMP"])
	assert.NotEmpty(t, h1["POLY_SIGNATURE"])

	// A different body must produce a different signature.
	h3 := auth.L2HeadersAt(testAddrHex, "POST", "/order", `{"x":2}`, 1700000000)
	assert.NotEqual(t, h1["POLY_SIGNATURE"], h3["POLY_SIGNATURE"])
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "abcdefgh", Secret: "12345678"}
	s := auth.String()
	assert.NotContains(t, s, "abcdefgh")
	assert.NotContains(t, s, "12345678")
	assert.Contains(t, s, "abcd****")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testPrivKey, testPassword)
	require.NoError(t, err)

	got, err := DecryptKey(blob, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testPrivKey, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testPrivKey, testPassword)
	require.NoError(t, err)

	_, err = DecryptKey(blob, "wrong")
	require.Error(t, err)
}

func TestEncryptKeyValidation(t *testing.T) {
	_, err := EncryptKey(testPrivKey, "")
	require.Error(t, err)

	_, err = EncryptKey("abcd", testPassword)
	require.Error(t, err)
}

func TestLoadKeyResolutionOrder(t *testing.T) {
	// Raw key wins.
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testPrivKey})
	require.NoError(t, err)
	assert.Equal(t, testPrivKey, got)

	// Encrypted file path.
	blob, err := EncryptKey(testPrivKey, testPassword)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: testPassword})
	require.NoError(t, err)
	assert.Equal(t, testPrivKey, got)

	// Nothing configured.
	_, err = LoadKey(KeyConfig{})
	require.Error(t, err)
}
