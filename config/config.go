package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig  RedisConfig
	ChainConfig  ChainConfig
	FeeConfig    FeeConfig
	HttpPort     int
	StorageType  StorageType
	LogLevel     string
	HistoryLimit int
}

type RedisConfig struct {
	Addr      string
	Namespace string
	Password  string
	PoolSize  int
}

type ChainConfig struct {
	RpcUrl string
	// ChainId is carried for signing; templates never override it.
	ChainId             int64
	PrivateKey          string
	ConfirmationTimeout time.Duration
	PendingGraceDelay   time.Duration
	MonitorInterval     time.Duration
}

// FeeConfig seeds the fee schedule when storage holds none yet.
type FeeConfig struct {
	BuyFeeBps    uint64
	SwapFeeBps   uint64
	SellFeeBps   uint64
	ExchangeRate uint64
}
