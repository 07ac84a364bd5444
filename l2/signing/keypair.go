package signing

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/betbot/nftmarket/l2/types"
)

// maxGrindRounds 派生私钥时的最大尝试次数
const maxGrindRounds = 1 << 16

// KeypairDeriver 由钱包签名确定性派生 Layer2 密钥对
type KeypairDeriver struct {
	walletKey *ecdsa.PrivateKey
	chainID   int64
}

// NewKeypairDeriver 创建派生器
func NewKeypairDeriver(walletKey *ecdsa.PrivateKey, chainID int64) *KeypairDeriver {
	return &KeypairDeriver{walletKey: walletKey, chainID: chainID}
}

// DeriveKeypair 派生 Layer2 密钥对
func (d *KeypairDeriver) DeriveKeypair(ctx context.Context) (types.KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return types.KeyPair{}, err
	}
	sig, err := BuildKeyDerivationSignature(d.walletKey, d.chainID)
	if err != nil {
		return types.KeyPair{}, err
	}
	return KeypairFromSignature(sig)
}

// KeypairFromSignature 从钱包签名的 r 部分派生私钥：
// keccak256(r || round) 直到落在 (0, N) 区间内
func KeypairFromSignature(sig []byte) (types.KeyPair, error) {
	if len(sig) < 32 {
		return types.KeyPair{}, fmt.Errorf("签名长度不足: %d", len(sig))
	}
	n := crypto.S256().Params().N
	seed := sig[:32]

	var round [4]byte
	for i := uint32(0); i < maxGrindRounds; i++ {
		binary.BigEndian.PutUint32(round[:], i)
		candidate := new(big.Int).SetBytes(crypto.Keccak256(seed, round[:]))
		if candidate.Sign() == 0 || candidate.Cmp(n) >= 0 {
			continue
		}
		priv, err := crypto.ToECDSA(math.PaddedBigBytes(candidate, 32))
		if err != nil {
			continue
		}
		return types.KeyPair{
			PublicKey:  hexutil.Encode(crypto.CompressPubkey(&priv.PublicKey)),
			PrivateKey: hexutil.Encode(crypto.FromECDSA(priv)),
		}, nil
	}
	return types.KeyPair{}, fmt.Errorf("派生私钥失败：超过最大尝试次数 %d", maxGrindRounds)
}

// PrivateKeyFromPair 解析密钥对中的私钥
func PrivateKeyFromPair(kp types.KeyPair) (*ecdsa.PrivateKey, error) {
	raw, err := hexutil.Decode(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("解析 Layer2 私钥失败: %w", err)
	}
	return crypto.ToECDSA(raw)
}
