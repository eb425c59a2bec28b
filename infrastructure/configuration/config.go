package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"catalog-sync/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	YouTube     YouTube     `json:"youtube"`
	Storage     Storage     `json:"storage"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Scraper     Queue       `json:"scraper"`
	Thumbnail   Queue       `json:"thumbnail"`
	Fetch       Fetch       `json:"fetch"`
}

type App struct {
	Port           int      `json:"port"`
	CronSecret     string   `json:"cronSecret"`
	AllowedOrigins []string `json:"allowedOrigins"`
	TimeZone       string   `json:"timeZone"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type YouTube struct {
	APIKey       string `json:"apiKey"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Storage addresses the object storage bucket that receives thumbnails.
type Storage struct {
	URL        string `json:"url"`
	Bucket     string `json:"bucket"`
	ServiceKey string `json:"serviceKey"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Queue bounds a dispatch queue: at most Concurrency jobs, one start per IntervalMs.
type Queue struct {
	Concurrency int `json:"concurrency"`
	IntervalMs  int `json:"intervalMs"`
}

type Fetch struct {
	Retries         int `json:"retries"`
	CacheTTLSeconds int `json:"cacheTTLSeconds"`
	// Backend selects the response cache: "redis" (default) or "memory".
	Backend string `json:"backend"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initRedis(&C)
	initApp(&C)
	initQueues(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "catalog")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.SSLMode = getConfigValue(C.Database.Psql.SSLMode, "DB_SSLMODE", "disable")

	C.Database.MySql.Name = getConfigValue(C.Database.MySql.Name, "MYSQL_DB_NAME", "")
	C.Database.MySql.Host = getConfigValue(C.Database.MySql.Host, "MYSQL_HOST", "")
	C.Database.MySql.Port = getConfigValue(C.Database.MySql.Port, "MYSQL_PORT", "3306")
	C.Database.MySql.User = getConfigValue(C.Database.MySql.User, "MYSQL_USER", "")
	C.Database.MySql.Password = getConfigValue(C.Database.MySql.Password, "MYSQL_PASSWORD", "")
	logger.GetLogger().
		WithField("psqlHost", C.Database.Psql.Host).
		WithField("mysqlHost", C.Database.MySql.Host).
		Info("Database configuration")
}

func initRedis(C *Config) {
	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "localhost")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Username = getConfigValue(C.RedisClient.Username, "REDIS_USERNAME", "")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := getEnv("APP_PORT", os.Getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		C.App.CronSecret = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		C.App.AllowedOrigins = strings.Split(v, ",")
	}
	C.App.TimeZone = getConfigValue(C.App.TimeZone, "TIME_ZONE", "Asia/Tokyo")
	if C.App.CronSecret == "" {
		logger.GetLogger().Warn("App.CronSecret not set; job endpoints accept unauthenticated requests. Provide CRON_SECRET via environment.")
	}

	C.Storage.URL = getConfigValue(C.Storage.URL, "STORAGE_URL", "")
	C.Storage.Bucket = getConfigValue(C.Storage.Bucket, "STORAGE_BUCKET", "thumbnails")
	C.Storage.ServiceKey = getConfigValue(C.Storage.ServiceKey, "STORAGE_SERVICE_KEY", "")

	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "catalog-revalidate")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_QUEUE", "catalog-revalidate")
}

func initQueues(C *Config) {
	if C.Scraper.Concurrency <= 0 {
		C.Scraper.Concurrency = 5
	}
	if C.Scraper.IntervalMs <= 0 {
		C.Scraper.IntervalMs = 100
	}
	if C.Thumbnail.Concurrency <= 0 {
		C.Thumbnail.Concurrency = 12
	}
	if C.Thumbnail.IntervalMs <= 0 {
		C.Thumbnail.IntervalMs = 250
	}
	if C.Fetch.Retries <= 0 {
		C.Fetch.Retries = 2
	}
	if C.Fetch.CacheTTLSeconds <= 0 {
		C.Fetch.CacheTTLSeconds = 3600
	}
	C.Fetch.Backend = getConfigValue(C.Fetch.Backend, "FETCH_CACHE_BACKEND", "redis")
}
