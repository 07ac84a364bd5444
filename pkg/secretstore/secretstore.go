package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// 钱包密钥类型
const (
	KindPrivateKey = "private_key"
	KindMnemonic   = "mnemonic"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("secretstore: not found")

// WalletSecret 存储的钱包密钥
type WalletSecret struct {
	Kind           string `json:"kind"`
	Value          string `json:"value"`
	DerivationPath string `json:"derivation_path,omitempty"`
}

// Validate 检查类型与内容
func (w WalletSecret) Validate() error {
	if w.Kind != KindPrivateKey && w.Kind != KindMnemonic {
		return fmt.Errorf("secretstore: unknown wallet kind %q", w.Kind)
	}
	if strings.TrimSpace(w.Value) == "" {
		return errors.New("secretstore: wallet value is empty")
	}
	return nil
}

// Store 基于 Badger 的本地加密存储（加密由 Badger 选项提供）
type Store struct {
	db *badger.DB
}

// OpenOptions 打开选项
type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 字节；为空时不加密
	ReadOnly      bool
	InMemory      bool // 测试用
}

// Open 打开存储
func Open(opts OpenOptions) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(opts.Path) == "" {
			return nil, errors.New("secretstore: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path).WithReadOnly(opts.ReadOnly)
	}
	bopts = bopts.WithLogger(nil)
	if len(opts.EncryptionKey) > 0 {
		// 加密模式下 Badger 要求设置索引缓存
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close 关闭存储
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func normalizeKey(key string) ([]byte, error) {
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return nil, errors.New("secretstore: key is empty")
	}
	return k, nil
}

// PutWallet 写入钱包密钥
func (s *Store) PutWallet(key string, w WalletSecret) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, raw)
	})
}

// GetWallet 读取钱包密钥，不存在时返回 ErrNotFound
func (s *Store) GetWallet(key string) (WalletSecret, error) {
	if s == nil || s.db == nil {
		return WalletSecret{}, errors.New("secretstore: not opened")
	}
	k, err := normalizeKey(key)
	if err != nil {
		return WalletSecret{}, err
	}

	var w WalletSecret
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		})
	})
	if err != nil {
		return WalletSecret{}, err
	}
	return w, nil
}

// ParseKey 解析 32 字节加密密钥（hex 或 base64），输入为空时返回 nil
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	// 优先按 hex 解析，避免把 hex 误判为 base64
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
