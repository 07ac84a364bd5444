package signing

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	"github.com/betbot/nftmarket/l2/types"
)

// DefaultOrderTTL 订单默认有效期
const DefaultOrderTTL = 30 * 24 * time.Hour

// OrderInput 构建订单参数所需的业务字段
type OrderInput struct {
	Amount          string
	Price           string // 展示价格（display_price）
	OrderType       types.OrderType
	TokenAddress    string
	TokenID         string
	TokenType       types.TokenType
	MarketplaceUUID string
}

// OrderBuilder 订单参数构建器（绑定业务字段并用 Layer2 私钥签名）
type OrderBuilder struct {
	chainID int64
	ttl     time.Duration
	now     func() time.Time
}

// NewOrderBuilder 创建订单构建器
func NewOrderBuilder(chainID int64) *OrderBuilder {
	return &OrderBuilder{chainID: chainID, ttl: DefaultOrderTTL, now: time.Now}
}

// WithTTL 设置订单有效期
func (b *OrderBuilder) WithTTL(ttl time.Duration) *OrderBuilder {
	if ttl > 0 {
		b.ttl = ttl
	}
	return b
}

// BuildOrderParams 构建并签名订单参数
func (b *OrderBuilder) BuildOrderParams(kp types.KeyPair, in OrderInput) (*types.OrderParams, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}
	priv, err := PrivateKeyFromPair(kp)
	if err != nil {
		return nil, err
	}

	now := b.now()
	params := &types.OrderParams{
		StarkKey:            kp.PublicKey,
		Amount:              in.Amount,
		Price:               in.Price,
		Direction:           in.OrderType.Direction(),
		TokenAddress:        in.TokenAddress,
		TokenID:             in.TokenID,
		TokenType:           in.TokenType,
		Nonce:               now.UnixMilli(),
		ExpirationTimestamp: now.Add(b.ttl).Unix(),
		MarketplaceUUID:     in.MarketplaceUUID,
		ClientOrderID:       uuid.NewString(),
	}

	hash, err := OrderHash(b.chainID, params)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, priv)
	if err != nil {
		return nil, fmt.Errorf("订单签名失败: %w", err)
	}
	params.Signature = types.Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
	}
	return params, nil
}

func validateOrderInput(in OrderInput) error {
	switch {
	case strings.TrimSpace(in.TokenID) == "":
		return fmt.Errorf("token id 不能为空")
	case strings.TrimSpace(in.Amount) == "":
		return fmt.Errorf("amount 不能为空")
	case strings.TrimSpace(in.Price) == "":
		return fmt.Errorf("price 不能为空")
	case in.OrderType != types.OrderTypeBuy && in.OrderType != types.OrderTypeSell:
		return fmt.Errorf("不支持的订单类型: %s", in.OrderType)
	}
	if _, err := uuid.Parse(in.MarketplaceUUID); err != nil {
		return fmt.Errorf("marketplace uuid 无效: %w", err)
	}
	return nil
}

// OrderHash 计算订单参数的 EIP712 哈希（不含签名字段）
func OrderHash(chainID int64, p *types.OrderParams) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Order": {
				{Name: "starkKey", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "price", Type: "string"},
				{Name: "direction", Type: "uint8"},
				{Name: "tokenAddress", Type: "string"},
				{Name: "tokenId", Type: "string"},
				{Name: "tokenType", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "expiration", Type: "uint256"},
				{Name: "marketplaceUuid", Type: "string"},
				{Name: "clientOrderId", Type: "string"},
			},
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:    OrderDomainName,
			Version: KeyDomainVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: map[string]interface{}{
			"starkKey":        p.StarkKey,
			"amount":          p.Amount,
			"price":           p.Price,
			"direction":       big.NewInt(int64(p.Direction)),
			"tokenAddress":    strings.ToLower(p.TokenAddress),
			"tokenId":         p.TokenID,
			"tokenType":       string(p.TokenType),
			"nonce":           big.NewInt(p.Nonce),
			"expiration":      big.NewInt(p.ExpirationTimestamp),
			"marketplaceUuid": p.MarketplaceUUID,
			"clientOrderId":   p.ClientOrderID,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算订单 EIP712 哈希失败: %w", err)
	}
	return hash, nil
}

// VerifyOrderSignature 用 StarkKey（压缩公钥）校验订单签名
func VerifyOrderSignature(chainID int64, p *types.OrderParams) (bool, error) {
	pub, err := hexutil.Decode(p.StarkKey)
	if err != nil {
		return false, fmt.Errorf("解析公钥失败: %w", err)
	}
	r, err := hexutil.Decode(p.Signature.R)
	if err != nil {
		return false, fmt.Errorf("解析签名 r 失败: %w", err)
	}
	s, err := hexutil.Decode(p.Signature.S)
	if err != nil {
		return false, fmt.Errorf("解析签名 s 失败: %w", err)
	}
	hash, err := OrderHash(chainID, p)
	if err != nil {
		return false, err
	}
	return crypto.VerifySignature(pub, hash, append(r, s...)), nil
}
