package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sauto-parser/internal/core/domain"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// SautoConfig хранит настройки доступа к sauto.cz и обхода.
type SautoConfig struct {
	BaseURL        string
	AllowedDomains []string
	RequestDelay   time.Duration
	RandomDelay    time.Duration
	RequestTimeout time.Duration
	Parallelism    int
	Workers        int
	MaxPages       int
	PagingMode     domain.PagingMode

	MissingEquipment domain.EquipmentPolicy
	FilterFile       string
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ. Пустой URL - поток записей выключен.
type RabbitMQConfig struct {
	URL            string
	PublishRecords bool // false - scrape не публикует записи даже при заданном URL
}

// DBconfig хранит конфигурацию для БД. Пустой URL - справочник кодов только встроенный.
type DBconfig struct {
	URL      string
	MaxConns int
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	Sauto        SautoConfig
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	OutputFormat string
	LogLevel     string
}

// LoadConfig загружает .env (если он есть) и читает переменные окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 && envPath[0] != "" {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// Явно указанный файл обязан существовать, .env по умолчанию - нет.
		if len(envPath) > 0 && envPath[0] != "" {
			return nil, fmt.Errorf("could not load env file %s: %w", envPath[0], err)
		}
		log.Debug().Err(err).Msg("Config: no .env file, using process environment")
	}

	cfg := &AppConfig{
		Sauto: SautoConfig{
			BaseURL:        getEnvAsString("SAUTO_BASE_URL", "https://www.sauto.cz"),
			AllowedDomains: getEnvAsList("SAUTO_ALLOWED_DOMAINS", nil),
			RequestDelay:   getEnvAsDuration("SAUTO_REQUEST_DELAY", 2*time.Second),
			RandomDelay:    getEnvAsDuration("SAUTO_RANDOM_DELAY", time.Second),
			RequestTimeout: getEnvAsDuration("SAUTO_REQUEST_TIMEOUT", 30*time.Second),
			Parallelism:    getEnvAsInt("SAUTO_PARALLELISM", 1),
			Workers:        getEnvAsInt("SAUTO_WORKERS", 1),
			MaxPages:       getEnvAsInt("SAUTO_MAX_PAGES", 0),
			FilterFile:     getEnvAsString("SAUTO_FILTER_FILE", ""),
		},
		Database: DBconfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:            os.Getenv("RABBITMQ_URL"),
			PublishRecords: getEnvAsBool("RABBITMQ_PUBLISH_RECORDS", true),
		},
		OutputFormat: getEnvAsString("OUTPUT_FORMAT", "table"),
		LogLevel:     getEnvAsString("LOG_LEVEL", "info"),
	}

	if cfg.Sauto.PagingMode, err = domain.ParsePagingMode(getEnvAsString("SAUTO_PAGING_MODE", "")); err != nil {
		return nil, fmt.Errorf("SAUTO_PAGING_MODE: %w", err)
	}
	if cfg.Sauto.MissingEquipment, err = domain.ParseEquipmentPolicy(getEnvAsString("SAUTO_MISSING_EQUIPMENT", "")); err != nil {
		return nil, fmt.Errorf("SAUTO_MISSING_EQUIPMENT: %w", err)
	}
	if cfg.Sauto.MaxPages < 0 {
		return nil, fmt.Errorf("SAUTO_MAX_PAGES must not be negative, got %d", cfg.Sauto.MaxPages)
	}
	return cfg, nil
}

// FilterFile - содержимое YAML-файла фильтра.
//
//	use_defaults: true
//	filter:
//	  manufacturer: škoda
//	  model: fabia
//	  price_max: 400000
//	codes:
//	  - name: škoda
//	    code: 93
//	    models: {fabia: 707}
type FilterFile struct {
	// nil или true - незаданные поля берутся из фильтра по умолчанию.
	UseDefaults *bool                     `yaml:"use_defaults"`
	Filter      domain.SearchFilter       `yaml:"filter"`
	Codes       []domain.ManufacturerCode `yaml:"codes"`
}

// LoadFilter читает файл фильтра и накладывает его на defaults. Пустой path -
// используются только defaults. Ложные флаги из файла не перекрывают истинные
// значения по умолчанию; для этого нужен use_defaults: false.
func LoadFilter(path string, defaults domain.SearchFilter) (domain.SearchFilter, []domain.ManufacturerCode, error) {
	if path == "" {
		return defaults, nil, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.SearchFilter{}, nil, fmt.Errorf("filter file %s does not exist", path)
		}
		return domain.SearchFilter{}, nil, fmt.Errorf("read filter file: %w", err)
	}

	var file FilterFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return domain.SearchFilter{}, nil, fmt.Errorf("parse filter file %s: %w", path, err)
	}

	if file.UseDefaults != nil && !*file.UseDefaults {
		return file.Filter, file.Codes, nil
	}

	out := defaults
	out.Conditions = append([]int(nil), defaults.Conditions...)
	if err := mergo.Merge(&out, file.Filter, mergo.WithOverride); err != nil {
		return domain.SearchFilter{}, nil, fmt.Errorf("merge filter with defaults: %w", err)
	}
	// Другой производитель без модели не должен наследовать модель по умолчанию.
	if file.Filter.Manufacturer != "" && file.Filter.Model == "" &&
		domain.NormalizeKey(file.Filter.Manufacturer, '-') != domain.NormalizeKey(defaults.Manufacturer, '-') {
		out.Model = ""
	}
	log.Debug().Str("path", path).Int("codes", len(file.Codes)).Msg("Config: filter file merged with defaults")
	return out, file.Codes, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("value", valueStr).Int("default", defaultValue).
			Msg("Config: could not parse int, using default")
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("value", valStr).Bool("default", defaultValue).
			Msg("Config: could not parse bool, using default")
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает "1500ms", "2s"; голое число - секунды.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("value", valStr).Dur("default", defaultValue).
			Msg("Config: could not parse duration, using default")
		return defaultValue
	}
	return d
}

// getEnvAsList - список через запятую, пустые элементы отбрасываются.
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
