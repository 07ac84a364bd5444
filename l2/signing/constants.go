package signing

const (
	// KeyDomainName EIP712 域名名称（Layer2 密钥派生）
	KeyDomainName = "NFTMarketLayer2"

	// KeyDomainVersion EIP712 版本
	KeyDomainVersion = "1"

	// KeyDerivationMessage 钱包签名消息，签名结果作为 Layer2 私钥的种子
	KeyDerivationMessage = "Generate layer 2 key"

	// OrderDomainName 订单签名域名
	OrderDomainName = "NFTMarketOrder"

	// DefaultDerivationPath 助记词默认派生路径
	DefaultDerivationPath = "m/44'/60'/0'/0/0"
)
