// Package config предоставляет структуру и функции для загрузки конфига
// из переменных окружения. Конфиг собирается один раз при старте и дальше
// передаётся по ссылке в конструкторы хранилища, клиентов и сервисов —
// чтения окружения внутри бизнес-логики нет.
package config

import (
	"fmt"
	"log"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env string `env:"ENV" env-default:"local"`

	// Токен бота, выданный BotFather.
	BotToken string `env:"BOT_TOKEN" validate:"required"`

	// Ключи Flutterwave.
	FlutterwaveSecretKey string `env:"FLUTTERWAVE_SECRET_KEY" validate:"required"`
	FlutterwavePublicKey string `env:"FLUTTERWAVE_PUBLIC_KEY" validate:"required"`

	// Закрытый канал: идентификатор чата и постоянная инвайт-ссылка.
	PremiumChannelID   string `env:"PREMIUM_CHANNEL_ID" validate:"required"`
	PremiumChannelLink string `env:"PREMIUM_CHANNEL_LINK" validate:"required"`

	// DatabaseURL — строка подключения к PostgreSQL. Если пустая, хранилище
	// поднимается на SQLite по пути DatabasePath.
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"./premium_bot.db"`

	// Порт HTTP-сервера проверки живости.
	Port int `env:"PORT" env-default:"8000"`

	// AdminUserID — Telegram ID администратора для команды /stats.
	// Пустое значение отключает команду.
	AdminUserID string `env:"ADMIN_USER_ID"`
}

// Load читает конфиг из окружения и проверяет обязательные поля.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("missing required environment variables: %w", err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс при ошибке. Отсутствие
// обязательной переменной окружения — фатальная ошибка старта.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	return cfg
}
