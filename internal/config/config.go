package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Blockchain BlockchainConfig `mapstructure:"blockchain" validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CacheConfig contains the settings for the Redis read-side cache.
// The cache is optional: an empty URL disables it.
type CacheConfig struct {
	RedisURL          string `mapstructure:"redis_url"`
	PostTTLSeconds    int    `mapstructure:"post_ttl_seconds"    validate:"gte=0"`
	CommentTTLSeconds int    `mapstructure:"comment_ttl_seconds" validate:"gte=0"`
}

// BlockchainConfig contains the settings for the ledger verification client.
type BlockchainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"          validate:"required"`
	ContractAddress string `mapstructure:"contract_address" validate:"required"`
	ChainID         int64  `mapstructure:"chain_id"         validate:"required,gt=0"`
}

// TaskConfig contains the settings for the background task pipeline.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
}
