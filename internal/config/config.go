package config

import (
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	API      APIConfig
	Payout   PayoutConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	SSLMode string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token      string // primary bot, user facing
	AdminToken string // admin bot, decision channel
	AdminID    string
	Username   string
	PhotoPath  string
	SupportURL string
	ManualsURL string
	ReviewsURL string
}

type APIConfig struct {
	Key string
}

type PayoutConfig struct {
	Channels   []ChannelConfig
	SessionTTL time.Duration
}

// ChannelConfig describes one required-subscription channel.
type ChannelConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOT_PHOTO", "image.png")
	viper.SetDefault("SESSION_TTL", "10m")
	viper.SetDefault("REQUIRED_CHANNELS", `[]`)

	sessionTTL, err := time.ParseDuration(viper.GetString("SESSION_TTL"))
	if err != nil {
		sessionTTL = 10 * time.Minute
	}

	var channels []ChannelConfig
	if raw := viper.GetString("REQUIRED_CHANNELS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &channels); err != nil {
			log.Printf("WARNING: REQUIRED_CHANNELS is not valid JSON: %v", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			SSLMode: viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:      viper.GetString("BOT_TOKEN"),
			AdminToken: viper.GetString("BOT_ADMIN_TOKEN"),
			AdminID:    viper.GetString("BOT_ADMIN_ID"),
			Username:   viper.GetString("BOT_USERNAME"),
			PhotoPath:  viper.GetString("BOT_PHOTO"),
			SupportURL: viper.GetString("BOT_SUPPORT_URL"),
			ManualsURL: viper.GetString("BOT_MANUALS_URL"),
			ReviewsURL: viper.GetString("BOT_REVIEWS_URL"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Payout: PayoutConfig{
			Channels:   channels,
			SessionTTL: sessionTTL,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Bot.Token == "" {
		log.Println("WARNING: BOT_TOKEN is not set")
	}
	if cfg.Bot.AdminToken == "" {
		log.Println("WARNING: BOT_ADMIN_TOKEN is not set")
	}

	return cfg, nil
}

// DSN returns the Postgres DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host + " port=" + d.Port + " user=" + d.User +
		" password=" + d.Pass + " dbname=" + d.Name + " sslmode=" + d.SSLMode
}
