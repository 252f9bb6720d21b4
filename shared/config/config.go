package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

// ChainPolicy is the per-chain tuning block: liquidity floor, the AMM programs
// considered verified, and the AMMs a swap route may start on.
type ChainPolicy struct {
	MinLiquidityUSD  float64  `mapstructure:"min_liquidity_usd"`
	KnownAMMPrograms []string `mapstructure:"known_amm_programs"`
	AllowedRouteAMMs []string `mapstructure:"allowed_route_amms"`
}

// Config is the global configuration structure. Numeric risk thresholds are
// configuration, not code.
type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Risk struct {
		MaxCreatorBurns        int     `mapstructure:"max_creator_burns"`
		VolumeLiquidityRatio   float64 `mapstructure:"volume_liquidity_ratio"`
		MinHolderCount         int     `mapstructure:"min_holder_count"`
		FetchTimeoutSeconds    int     `mapstructure:"fetch_timeout_seconds"`
		OptionalTimeoutSeconds int     `mapstructure:"optional_timeout_seconds"`
		FreshnessSeconds       int     `mapstructure:"freshness_seconds"`
	} `mapstructure:"risk"`

	Guard struct {
		MaxPriceImpact    float64 `mapstructure:"max_price_impact"`
		PerTradeMaxAmount float64 `mapstructure:"per_trade_max_amount"`
		BlockLevel        string  `mapstructure:"block_level"`
	} `mapstructure:"guard"`

	Trade struct {
		Retries               int `mapstructure:"retries"`
		AttemptTimeoutSeconds int `mapstructure:"attempt_timeout_seconds"`
	} `mapstructure:"trade"`

	Session struct {
		TimeoutMinutes int `mapstructure:"timeout_minutes"`
	} `mapstructure:"session"`

	Chains map[string]ChainPolicy `mapstructure:"chains"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

// LoadConfig loads configuration from the given yaml file, with environment
// variable overrides and sane defaults for every threshold.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("risk.max_creator_burns", 2)
	viper.SetDefault("risk.volume_liquidity_ratio", 5.0)
	viper.SetDefault("risk.min_holder_count", 100)
	viper.SetDefault("risk.fetch_timeout_seconds", 10)
	viper.SetDefault("risk.optional_timeout_seconds", 4)
	viper.SetDefault("risk.freshness_seconds", 60)
	viper.SetDefault("guard.max_price_impact", 0.10)
	viper.SetDefault("guard.per_trade_max_amount", 0.1)
	viper.SetDefault("guard.block_level", "high")
	viper.SetDefault("trade.retries", 1)
	viper.SetDefault("trade.attempt_timeout_seconds", 20)
	viper.SetDefault("session.timeout_minutes", 15)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file %s: %v", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	return globalConfig
}
