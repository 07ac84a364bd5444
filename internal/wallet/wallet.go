package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/pkg/config"
	"github.com/betbot/nftmarket/pkg/secretstore"
)

var log = logrus.WithField("component", "wallet")

// ErrNoWallet 未配置任何钱包来源
var ErrNoWallet = errors.New("no wallet configured (set WALLET_PRIVATE_KEY, WALLET_MNEMONIC or WALLET_SECRET_STORE)")

// Resolve 按优先级加载钱包私钥：私钥 > 助记词 > 本地加密存储
// storeKey 为存储的加密密钥（hex/base64），未加密时为空
func Resolve(cfg config.WalletConfig, storeKey string) (*ecdsa.PrivateKey, error) {
	switch {
	case cfg.PrivateKey != "":
		return signing.WalletFromHex(cfg.PrivateKey)
	case cfg.Mnemonic != "":
		return signing.WalletFromMnemonic(cfg.Mnemonic, cfg.DerivationPath)
	case cfg.SecretStorePath != "":
		return fromStore(cfg, storeKey)
	default:
		return nil, ErrNoWallet
	}
}

func fromStore(cfg config.WalletConfig, storeKey string) (*ecdsa.PrivateKey, error) {
	encKey, err := secretstore.ParseKey(storeKey)
	if err != nil {
		return nil, fmt.Errorf("解析存储密钥失败: %w", err)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: encKey,
		ReadOnly:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("打开钱包存储失败: %w", err)
	}
	defer store.Close()

	secret, err := store.GetWallet(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("读取钱包 %q 失败: %w", cfg.SecretKey, err)
	}
	log.Infof("🔐 已从本地存储加载钱包: key=%s kind=%s", cfg.SecretKey, secret.Kind)
	return FromSecret(secret, cfg.DerivationPath)
}

// FromSecret 把存储的密钥转换为私钥；存储中的派生路径优先
func FromSecret(secret secretstore.WalletSecret, fallbackPath string) (*ecdsa.PrivateKey, error) {
	if err := secret.Validate(); err != nil {
		return nil, err
	}
	if secret.Kind == secretstore.KindPrivateKey {
		return signing.WalletFromHex(secret.Value)
	}
	path := secret.DerivationPath
	if path == "" {
		path = fallbackPath
	}
	return signing.WalletFromMnemonic(secret.Value, path)
}
