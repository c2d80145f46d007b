package config

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/redis"
)

// Storage backend names accepted by STOREFRONT_STORAGE.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Storefront holds everything a browsing context needs to talk to the remote
// API and persist its session.
type Storefront struct {
	AppName string `env:"APP_NAME" envDefault:"storefront"`
	Env     string `env:"APP_ENV" envDefault:"development"`

	APIURL     string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080/api"`
	APITimeout time.Duration `env:"STOREFRONT_API_TIMEOUT" envDefault:"15s"`

	Storage       string `env:"STOREFRONT_STORAGE" envDefault:"memory"`
	StorageFile   string `env:"STOREFRONT_STORAGE_FILE" envDefault:".storefront.json"`
	StoragePrefix string `env:"STOREFRONT_STORAGE_PREFIX" envDefault:"storefront:"`

	NoteDebounce time.Duration `env:"STOREFRONT_NOTE_DEBOUNCE" envDefault:"800ms"`
	PromoFile    string        `env:"STOREFRONT_PROMO_FILE"`

	Redis redis.Config
	HTTP  httpserver.Config
}

// LoadStorefront loads and validates the storefront configuration.
func LoadStorefront() (Storefront, error) {
	var cfg Storefront
	if err := Load(&cfg); err != nil {
		return Storefront{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Storefront{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Storefront) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageFile, StorageRedis:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorage, c.Storage)
	}
	if c.NoteDebounce < 0 {
		return fmt.Errorf("%w: negative note debounce", ErrParsingConfig)
	}
	return nil
}
