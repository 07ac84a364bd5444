package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/pkg/config"
	"github.com/betbot/nftmarket/pkg/secretstore"
)

const (
	testMnemonic = "test test test test test test test test test test test junk"
	hardhatAddr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestResolvePriority(t *testing.T) {
	key, err := Resolve(config.WalletConfig{
		PrivateKey: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		Mnemonic:   testMnemonic,
	}, "")
	require.NoError(t, err)
	assert.NotEqual(t, hardhatAddr0, signing.WalletAddress(key).Hex())

	key, err = Resolve(config.WalletConfig{Mnemonic: testMnemonic}, "")
	require.NoError(t, err)
	assert.Equal(t, hardhatAddr0, signing.WalletAddress(key).Hex())

	_, err = Resolve(config.WalletConfig{}, "")
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestResolveFromStore(t *testing.T) {
	dir := t.TempDir()
	storeKey := strings.Repeat("cd", 32)
	encKey, err := secretstore.ParseKey(storeKey)
	require.NoError(t, err)

	s, err := secretstore.Open(secretstore.OpenOptions{Path: dir, EncryptionKey: encKey})
	require.NoError(t, err)
	require.NoError(t, s.PutWallet("main", secretstore.WalletSecret{Kind: secretstore.KindMnemonic, Value: testMnemonic}))
	require.NoError(t, s.Close())

	key, err := Resolve(config.WalletConfig{
		SecretStorePath: dir,
		SecretKey:       "main",
		DerivationPath:  config.DefaultDerivationPath,
	}, storeKey)
	require.NoError(t, err)
	assert.Equal(t, hardhatAddr0, signing.WalletAddress(key).Hex())

	_, err = Resolve(config.WalletConfig{SecretStorePath: dir, SecretKey: "missing"}, storeKey)
	assert.ErrorIs(t, err, secretstore.ErrNotFound)
}

func TestFromSecretInvalid(t *testing.T) {
	_, err := FromSecret(secretstore.WalletSecret{Kind: "seed", Value: "x"}, "")
	assert.Error(t, err)
}
