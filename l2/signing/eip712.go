package signing

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// BuildKeyDerivationSignature 用钱包私钥对固定的 EIP712 消息签名
// 同一钱包、同一链 ID 的签名结果是确定的（RFC6979），因此可用作派生种子
func BuildKeyDerivationSignature(walletKey *ecdsa.PrivateKey, chainID int64) ([]byte, error) {
	if walletKey == nil {
		return nil, fmt.Errorf("钱包私钥为空")
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Layer2Key": {
				{Name: "contents", Type: "string"},
			},
		},
		PrimaryType: "Layer2Key",
		Domain: apitypes.TypedDataDomain{
			Name:    KeyDomainName,
			Version: KeyDomainVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: map[string]interface{}{
			"contents": KeyDerivationMessage,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}

	// crypto.Sign 返回 65 字节：r(32) + s(32) + v(1)
	sig, err := crypto.Sign(hash, walletKey)
	if err != nil {
		return nil, fmt.Errorf("签名失败: %w", err)
	}
	return sig, nil
}
