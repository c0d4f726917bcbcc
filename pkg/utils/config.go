package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Booking  BookingConfig
	Referral ReferralConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type BookingConfig struct {
	HandlingFee       float64
	EstimatedDuration int
	CatalogTTLMinutes int
}

type ReferralConfig struct {
	DiscountPercentage   int
	ExpiryDays           int
	SweepIntervalMinutes int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("HANDLING_FEE", 9)
	viper.SetDefault("ESTIMATED_DURATION_MINUTES", 60)
	viper.SetDefault("CATALOG_TTL_MINUTES", 15)
	viper.SetDefault("REFERRAL_DISCOUNT_PERCENTAGE", 50)
	viper.SetDefault("REFERRAL_EXPIRY_DAYS", 30)
	viper.SetDefault("REFERRAL_SWEEP_INTERVAL_MINUTES", 60)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Booking: BookingConfig{
			HandlingFee:       viper.GetFloat64("HANDLING_FEE"),
			EstimatedDuration: viper.GetInt("ESTIMATED_DURATION_MINUTES"),
			CatalogTTLMinutes: viper.GetInt("CATALOG_TTL_MINUTES"),
		},
		Referral: ReferralConfig{
			DiscountPercentage:   viper.GetInt("REFERRAL_DISCOUNT_PERCENTAGE"),
			ExpiryDays:           viper.GetInt("REFERRAL_EXPIRY_DAYS"),
			SweepIntervalMinutes: viper.GetInt("REFERRAL_SWEEP_INTERVAL_MINUTES"),
		},
	}

	return config, nil
}
