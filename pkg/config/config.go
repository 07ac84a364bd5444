package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultAPIBaseURL      = "https://api-dev.reddio.com"
	DefaultMetadataBaseURL = "https://metadata.reddio.com"
	DefaultMarketplaceUUID = "11ed793a-cc11-4e44-9738-97165c4e14a7"
	DefaultChainID         = 5
	DefaultBalancesLimit   = 10000
	DefaultRequestsPer10s  = 100
	DefaultTimeoutSeconds  = 15
	DefaultDerivationPath  = "m/44'/60'/0'/0/0"
	DefaultSecretKey       = "wallet"
	DefaultServerListen    = "127.0.0.1:8080" // 只监听本机，写接口会动用钱包
)

// APIConfig 交易 API 与元数据服务
type APIConfig struct {
	BaseURL         string
	MetadataBaseURL string
	Timeout         time.Duration
	RetryCount      int
	RequestsPer10s  int // 每 10 秒请求数上限
	BalancesLimit   int
}

// MarketConfig 商城参数
type MarketConfig struct {
	CollectionAddress         string // ERC721
	MintableCollectionAddress string // ERC721M（可选）
	MarketplaceUUID           string
	ChainID                   int64
}

// WalletConfig 钱包来源：私钥 > 助记词 > 本地加密存储
type WalletConfig struct {
	PrivateKey      string
	Mnemonic        string
	DerivationPath  string
	SecretStorePath string // badger 目录
	SecretKey       string // 存储中的键名
}

// ServerConfig 服务监听
type ServerConfig struct {
	Listen         string
	MetricsListen  string   // 为空时不启动 metrics
	AllowedOrigins []string // CORS
}

// Config 应用配置
type Config struct {
	API      APIConfig
	Market   MarketConfig
	Wallet   WalletConfig
	Server   ServerConfig
	LogLevel string // 日志级别
	LogFile  string // 日志文件路径（可选）
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	API struct {
		BaseURL         string `yaml:"base_url" json:"base_url"`
		MetadataBaseURL string `yaml:"metadata_base_url" json:"metadata_base_url"`
		TimeoutSeconds  int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		RetryCount      int    `yaml:"retry_count" json:"retry_count"`
		RequestsPer10s  int    `yaml:"requests_per_10s" json:"requests_per_10s"`
		BalancesLimit   int    `yaml:"balances_limit" json:"balances_limit"`
	} `yaml:"api" json:"api"`
	Market struct {
		CollectionAddress         string `yaml:"collection_address" json:"collection_address"`
		MintableCollectionAddress string `yaml:"mintable_collection_address" json:"mintable_collection_address"`
		MarketplaceUUID           string `yaml:"marketplace_uuid" json:"marketplace_uuid"`
		ChainID                   int64  `yaml:"chain_id" json:"chain_id"`
	} `yaml:"market" json:"market"`
	Wallet struct {
		PrivateKey      string `yaml:"private_key" json:"private_key"`
		Mnemonic        string `yaml:"mnemonic" json:"mnemonic"`
		DerivationPath  string `yaml:"derivation_path" json:"derivation_path"`
		SecretStorePath string `yaml:"secret_store_path" json:"secret_store_path"`
		SecretKey       string `yaml:"secret_key" json:"secret_key"`
	} `yaml:"wallet" json:"wallet"`
	Server struct {
		Listen         string   `yaml:"listen" json:"listen"`
		MetricsListen  string   `yaml:"metrics_listen" json:"metrics_listen"`
		AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	} `yaml:"server" json:"server"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file"`
}

// LoadFromFile 加载配置，优先级：环境变量 > 配置文件 > 默认值
// filePath 为空时只使用环境变量与默认值
func LoadFromFile(filePath string) (*Config, error) {
	cf := &ConfigFile{}
	if filePath != "" {
		loaded, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		cf = loaded
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:         strings.TrimRight(pick("NFTMARKET_API_BASE_URL", cf.API.BaseURL, DefaultAPIBaseURL), "/"),
			MetadataBaseURL: strings.TrimRight(pick("NFTMARKET_METADATA_BASE_URL", cf.API.MetadataBaseURL, DefaultMetadataBaseURL), "/"),
			Timeout:         time.Duration(pickInt("NFTMARKET_HTTP_TIMEOUT_SECONDS", cf.API.TimeoutSeconds, DefaultTimeoutSeconds)) * time.Second,
			RetryCount:      pickInt("NFTMARKET_HTTP_RETRY_COUNT", cf.API.RetryCount, 2),
			RequestsPer10s:  pickInt("NFTMARKET_REQUESTS_PER_10S", cf.API.RequestsPer10s, DefaultRequestsPer10s),
			BalancesLimit:   pickInt("NFTMARKET_BALANCES_LIMIT", cf.API.BalancesLimit, DefaultBalancesLimit),
		},
		Market: MarketConfig{
			CollectionAddress:         pick("NFTMARKET_COLLECTION_ADDRESS", cf.Market.CollectionAddress, ""),
			MintableCollectionAddress: pick("NFTMARKET_MINTABLE_COLLECTION_ADDRESS", cf.Market.MintableCollectionAddress, ""),
			MarketplaceUUID:           pick("NFTMARKET_MARKETPLACE_UUID", cf.Market.MarketplaceUUID, DefaultMarketplaceUUID),
			ChainID:                   int64(pickInt("NFTMARKET_CHAIN_ID", int(cf.Market.ChainID), DefaultChainID)),
		},
		Wallet: WalletConfig{
			PrivateKey:      pick("WALLET_PRIVATE_KEY", cf.Wallet.PrivateKey, ""),
			Mnemonic:        pick("WALLET_MNEMONIC", cf.Wallet.Mnemonic, ""),
			DerivationPath:  pick("WALLET_DERIVATION_PATH", cf.Wallet.DerivationPath, DefaultDerivationPath),
			SecretStorePath: pick("WALLET_SECRET_STORE", cf.Wallet.SecretStorePath, ""),
			SecretKey:       pick("WALLET_SECRET_KEY", cf.Wallet.SecretKey, DefaultSecretKey),
		},
		Server: ServerConfig{
			Listen:         pick("NFTMARKET_LISTEN", cf.Server.Listen, DefaultServerListen),
			MetricsListen:  pick("NFTMARKET_METRICS_LISTEN", cf.Server.MetricsListen, ""),
			AllowedOrigins: pickList("NFTMARKET_ALLOWED_ORIGINS", cf.Server.AllowedOrigins),
		},
		LogLevel: pick("LOG_LEVEL", cf.LogLevel, "info"),
		LogFile:  pick("LOG_FILE", cf.LogFile, ""),
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return &configFile, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("NFTMARKET_API_BASE_URL 未配置")
	}
	if c.Market.CollectionAddress == "" {
		return fmt.Errorf("NFTMARKET_COLLECTION_ADDRESS 未配置")
	}
	if _, err := uuid.Parse(c.Market.MarketplaceUUID); err != nil {
		return fmt.Errorf("NFTMARKET_MARKETPLACE_UUID 无效: %w", err)
	}
	if c.Market.ChainID <= 0 {
		return fmt.Errorf("NFTMARKET_CHAIN_ID 必须大于 0")
	}
	if c.API.BalancesLimit <= 0 {
		return fmt.Errorf("NFTMARKET_BALANCES_LIMIT 必须大于 0")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("NFTMARKET_HTTP_TIMEOUT_SECONDS 必须大于 0")
	}
	return nil
}

// HasWallet 是否配置了任一钱包来源
func (w WalletConfig) HasWallet() bool {
	return w.PrivateKey != "" || w.Mnemonic != "" || w.SecretStorePath != ""
}

// pick 环境变量 > 配置文件 > 默认值
func pick(envKey, fileValue, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fileValue); v != "" {
		return v
	}
	return defaultValue
}

// pickInt 同 pick；环境变量解析失败时忽略，配置文件中的 0 视为未设置
func pickInt(envKey string, fileValue, defaultValue int) int {
	if v := os.Getenv(envKey); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

// pickList 逗号分隔的环境变量 > 配置文件
func pickList(envKey string, fileValue []string) []string {
	if v := os.Getenv(envKey); v != "" {
		return parseList(v)
	}
	return fileValue
}

func parseList(str string) []string {
	parts := strings.Split(str, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
