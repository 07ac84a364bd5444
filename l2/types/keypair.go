package types

// KeyPair Layer2 密钥对（由钱包签名派生）
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}
