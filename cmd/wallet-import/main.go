package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/betbot/nftmarket/internal/wallet"
	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/pkg/config"
	"github.com/betbot/nftmarket/pkg/secretstore"
)

func main() {
	_ = godotenv.Load()

	var (
		dbPath     = flag.String("badger", getenv("WALLET_SECRET_STORE", "data/wallet.badger"), "badger secrets db path")
		storeKey   = flag.String("store-key", getenv("WALLET_SECRET_STORE_KEY", ""), "badger encryption key (32 bytes base64/hex)")
		name       = flag.String("name", getenv("WALLET_SECRET_KEY", config.DefaultSecretKey), "key name inside badger")
		privateKey = flag.String("private-key", getenv("WALLET_PRIVATE_KEY", ""), "wallet private key (hex)")
		mnemonic   = flag.String("mnemonic", getenv("WALLET_MNEMONIC", ""), "wallet mnemonic")
		path       = flag.String("derivation-path", getenv("WALLET_DERIVATION_PATH", config.DefaultDerivationPath), "HD derivation path for mnemonic")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*storeKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("store key is required: set WALLET_SECRET_STORE_KEY or pass -store-key"))
	}

	var secret secretstore.WalletSecret
	switch {
	case *privateKey != "":
		secret = secretstore.WalletSecret{Kind: secretstore.KindPrivateKey, Value: *privateKey}
	case *mnemonic != "":
		secret = secretstore.WalletSecret{Kind: secretstore.KindMnemonic, Value: *mnemonic, DerivationPath: *path}
	default:
		fatal(fmt.Errorf("either -private-key or -mnemonic is required"))
	}

	// 写入前先校验能否得到私钥
	key, err := wallet.FromSecret(secret, *path)
	if err != nil {
		fatal(err)
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{Path: *dbPath, EncryptionKey: keyBytes})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	if err := ss.PutWallet(*name, secret); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "已导入钱包 %s 到 badger：%s（键 %s）\n", signing.WalletAddress(key).Hex(), *dbPath, *name)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
