package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the GORM/pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// KafkaConfig holds Kafka broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// BillingConfig holds the billing policy knobs. All percentages are whole
// numbers (10 means 10%).
type BillingConfig struct {
	CommissionPercent int
	PenaltyPercent    int
	TaxPercent        int
	DueDays           int
	BlockGraceDays    int
}

// ServiceConfig holds all configuration for the billing service.
type ServiceConfig struct {
	Port    string
	AppEnv  string
	DB      DatabaseConfig
	Kafka   KafkaConfig
	JWT     JWTConfig
	Billing BillingConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8085")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "billing")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "staynest.")
	v.SetDefault("COMMISSION_PERCENT", 10)
	v.SetDefault("PENALTY_PERCENT", 5)
	v.SetDefault("TAX_PERCENT", 12)
	v.SetDefault("COMMISSION_DUE_DAYS", 5)
	v.SetDefault("BLOCK_GRACE_DAYS", 5)

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if v.GetString("APP_ENV") != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		secret = "dev-secret-change-me"
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		JWT: JWTConfig{Secret: secret},
		Billing: BillingConfig{
			CommissionPercent: v.GetInt("COMMISSION_PERCENT"),
			PenaltyPercent:    v.GetInt("PENALTY_PERCENT"),
			TaxPercent:        v.GetInt("TAX_PERCENT"),
			DueDays:           v.GetInt("COMMISSION_DUE_DAYS"),
			BlockGraceDays:    v.GetInt("BLOCK_GRACE_DAYS"),
		},
	}, nil
}
