package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RunAddress       string `env:"RUN_ADDRESS"`
	DatabaseDSN      string `env:"DATABASE_URI"`
	MigrationsDir    string `env:"MIGRATIONS_DIR"`
	JWTSecret        string `env:"JWT_SECRET"`
	GatewayAddress   string `env:"GATEWAY_ADDRESS"`
	MinDepositAmount int64  `env:"MIN_DEPOSIT_AMOUNT"`
	CatalogPath      string `env:"CATALOG_PATH"`
}

func LoadConfig() (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTSecret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if conf.GatewayAddress == "" {
		return nil, errors.New("payment gateway address is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	flag.StringVar(&flagConfig.JWTSecret, "s", "", "JWT signing secret")
	flag.StringVar(&flagConfig.GatewayAddress, "g", "", "Payment gateway address")
	flag.Int64Var(&flagConfig.MinDepositAmount, "min-deposit", 1000, "Minimum manual transfer amount in minor units")
	flag.StringVar(&flagConfig.CatalogPath, "c", "", "Product catalog JSON file path (empty for built-in catalog)")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:       defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:      defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:    defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTSecret:        defaultIfBlank(envConfig.JWTSecret, flagsConfig.JWTSecret),
		GatewayAddress:   defaultIfBlank(envConfig.GatewayAddress, flagsConfig.GatewayAddress),
		MinDepositAmount: defaultIfZero(envConfig.MinDepositAmount, flagsConfig.MinDepositAmount),
		CatalogPath:      defaultIfBlank(envConfig.CatalogPath, flagsConfig.CatalogPath),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value int64, defaultValue int64) int64 {
	if value == 0 {
		return defaultValue
	}
	return value
}
