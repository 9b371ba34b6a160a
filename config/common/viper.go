package common

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

type ChatConfig struct {
	InvitationTTL    time.Duration
	WaitingRoomTTL   time.Duration
	CallRingTimeout  time.Duration
	MessagePageLimit int
}

func NewViper() *Config {
	config := viper.New()
	config.SetConfigFile(".env")
	config.AddConfigPath("../")
	config.AutomaticEnv()
	setDefaults(config)

	log.Trace("Checking file .env ....")
	if err := config.ReadInConfig(); err != nil {
		log.Warnf("no .env file loaded, using process environment: %v", err)
	}
	return &Config{Viper: config}
}

// NewConfig wraps an already populated viper instance.
func NewConfig(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{Viper: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "bheem-chat")
	v.SetDefault("APP_PORT", "7720")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:8080")
	v.SetDefault("ATTACHMENT_DIR", "uploads")
	v.SetDefault("ATTACHMENT_BASE_URL", "/files")
	v.SetDefault("ATTACHMENT_MAX_BYTES", 25<<20)
	v.SetDefault("INVITATION_TTL", "168h")
	v.SetDefault("WAITING_ROOM_TTL", "4h")
	v.SetDefault("CALL_RING_TIMEOUT", "60s")
	v.SetDefault("MESSAGE_PAGE_LIMIT", 50)
	v.SetDefault("LOG_DIR", "logs")
}

func (c *Config) GetAppConfig() (appName string, port string) {
	return c.Viper.GetString("APP_NAME"), c.Viper.GetString("APP_PORT")
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort, dbTimeZone string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")
	dbTimeZone = c.Viper.GetString("DB_TIMEZONE")

	return dbHost, dbUser, dbPassword, dbName, dbPort, dbTimeZone
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

func (c *Config) GetRedisURL() string {
	return strings.TrimSpace(c.Viper.GetString("REDIS_URL"))
}

func (c *Config) GetCorsOrigins() string {
	return c.Viper.GetString("CORS_ALLOW_ORIGINS")
}

func (c *Config) GetLogDir() string {
	return c.Viper.GetString("LOG_DIR")
}

func (c *Config) GetAttachmentConfig() (dir string, baseURL string, maxBytes int64) {
	dir = c.Viper.GetString("ATTACHMENT_DIR")
	baseURL = strings.TrimRight(c.Viper.GetString("ATTACHMENT_BASE_URL"), "/")
	maxBytes = c.Viper.GetInt64("ATTACHMENT_MAX_BYTES")
	return dir, baseURL, maxBytes
}

func (c *Config) GetChatConfig() ChatConfig {
	limit := c.Viper.GetInt("MESSAGE_PAGE_LIMIT")
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return ChatConfig{
		InvitationTTL:    c.Viper.GetDuration("INVITATION_TTL"),
		WaitingRoomTTL:   c.Viper.GetDuration("WAITING_ROOM_TTL"),
		CallRingTimeout:  c.Viper.GetDuration("CALL_RING_TIMEOUT"),
		MessagePageLimit: limit,
	}
}
