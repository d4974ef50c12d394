// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	FrontendURL             string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"https://faithbyexperiments.com"`
	OperatorEmail           string `yaml:"operator_email" env:"OPERATOR_EMAIL"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Razorpay                `yaml:"razorpay"`
	SMTP                    `yaml:"smtp"`
	SMSGateway              `yaml:"sms_gateway"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// Razorpay ключи платёжного провайдера.
// Пустые значения означают, что платежи не сконфигурированы:
// соответствующие эндпоинты отвечают 503.
type Razorpay struct {
	RazorpayKeyID     string `yaml:"razorpay_key_id" env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `yaml:"razorpay_key_secret" env:"RAZORPAY_KEY_SECRET"`
}

// SMTP структура для настройки почтового транспорта
type SMTP struct {
	SMTPHost    string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort    string `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser    string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass    string `yaml:"smtp_pass" env:"SMTP_PASS"`
	SenderEmail string `yaml:"sender_email" env:"SENDER_EMAIL"`
}

// SMSGateway структура для настройки SMS-шлюза
type SMSGateway struct {
	SMSAPIURL string `yaml:"sms_api_url" env:"SMS_API_URL"`
	SMSAPIKey string `yaml:"sms_api_key" env:"SMS_API_KEY"`
	SMSFrom   string `yaml:"sms_from" env:"SMS_FROM"`
}

// MustLoad функция для загрузки конфига, путь берется из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// PaymentsConfigured сообщает, заданы ли ключи Razorpay.
func (c *Config) PaymentsConfigured() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}
