package utils

import (
	"fmt"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	DSN      string
}

// ProviderConfig holds the endpoints for NAV history and scheme lookups
type ProviderConfig struct {
	NAVBaseURL    string `mapstructure:"nav_base_url"`
	AMFINavURL    string `mapstructure:"amfi_nav_url"`
	BenchmarkCode string `mapstructure:"benchmark_code"`
	Timeout       int    `mapstructure:"timeout"`
}

// AnalyticsConfig holds the fixed analytics constants
type AnalyticsConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
}

// Config holds all configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

// BuildDSN builds the database connection string
func (c *Config) BuildDSN() {
	c.Database.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("provider.nav_base_url", "https://api.mfapi.in")
	viper.SetDefault("provider.amfi_nav_url", "https://www.amfiindia.com/spages/NAVAll.txt")
	viper.SetDefault("provider.benchmark_code", "147794")
	viper.SetDefault("provider.timeout", 15)
	viper.SetDefault("analytics.risk_free_rate", 0.06)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build the DSN string
	config.BuildDSN()

	return &config, nil
}
