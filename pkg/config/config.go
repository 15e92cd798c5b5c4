// Package config loads the host configuration: a YAML file seeded by
// Default and overridden by PRODUCTFORM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRODUCTFORM_"

// Image providers.
const (
	ProviderImgur = "imgur"
	ProviderMinio = "minio"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Backend Backend `yaml:"backend"`
	Images  Images  `yaml:"images"`
	Form    Form    `yaml:"form"`
	Logger  Logger  `yaml:"logger"`
}

type Server struct {
	Addr          string        `yaml:"addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

type Backend struct {
	BaseURL        string        `yaml:"base_url"`
	CategoriesPath string        `yaml:"categories_path"`
	ProductsPath   string        `yaml:"products_path"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Images struct {
	Provider string `yaml:"provider"`
	Imgur    Imgur  `yaml:"imgur"`
	Minio    Minio  `yaml:"minio"`
}

type Imgur struct {
	Endpoint string `yaml:"endpoint"`
	ClientID string `yaml:"client_id"`
}

type Minio struct {
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	UseSSL        bool          `yaml:"use_ssl"`
	Bucket        string        `yaml:"bucket"`
	PublicBaseURL string        `yaml:"public_base_url"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// Form tunes the controller. TemplatesDir holds optional .tpl files that
// shadow the embedded ones; DebugTemplates reloads them on every render.
type Form struct {
	Locale               string        `yaml:"locale"`
	NotificationDuration time.Duration `yaml:"notification_duration"`
	TemplatesDir         string        `yaml:"templates_dir"`
	DebugTemplates       bool          `yaml:"debug_templates"`
}

// Logger selects the zap preset ("production" or "development") and the
// optional rotating log file.
type Logger struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8080",
			ShutdownGrace: 10 * time.Second,
		},
		Backend: Backend{
			CategoriesPath: "api/rest/categories",
			ProductsPath:   "api/rest/products",
			Timeout:        15 * time.Second,
		},
		Images: Images{
			Provider: ProviderImgur,
			Imgur:    Imgur{Endpoint: "https://api.imgur.com/3/image"},
			Minio: Minio{
				Bucket:        "product-images",
				PresignExpiry: 7 * 24 * time.Hour,
			},
		},
		Form: Form{
			Locale:               "en",
			NotificationDuration: 2 * time.Second,
		},
		Logger: Logger{
			Mode:     "development",
			Filename: "productform.log",
		},
	}
}

// Load reads path (when non-empty) over Default and applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Parse(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the values the document omits.
func Parse(raw []byte, cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil target")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from lookup, which is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	var errs []error
	for _, b := range c.bindings() {
		raw, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(raw); err != nil {
			errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, b.key, err))
		}
	}
	return errors.Join(errs...)
}

type binding struct {
	key string
	set func(string) error
}

func (c *Config) bindings() []binding {
	return []binding{
		str("SERVER_ADDR", &c.Server.Addr),
		dur("SERVER_SHUTDOWN_GRACE", &c.Server.ShutdownGrace),
		str("BACKEND_BASE_URL", &c.Backend.BaseURL),
		str("BACKEND_CATEGORIES_PATH", &c.Backend.CategoriesPath),
		str("BACKEND_PRODUCTS_PATH", &c.Backend.ProductsPath),
		dur("BACKEND_TIMEOUT", &c.Backend.Timeout),
		str("IMAGES_PROVIDER", &c.Images.Provider),
		str("IMGUR_ENDPOINT", &c.Images.Imgur.Endpoint),
		str("IMGUR_CLIENT_ID", &c.Images.Imgur.ClientID),
		str("MINIO_ENDPOINT", &c.Images.Minio.Endpoint),
		str("MINIO_ACCESS_KEY", &c.Images.Minio.AccessKey),
		str("MINIO_SECRET_KEY", &c.Images.Minio.SecretKey),
		boolean("MINIO_USE_SSL", &c.Images.Minio.UseSSL),
		str("MINIO_BUCKET", &c.Images.Minio.Bucket),
		str("MINIO_PUBLIC_BASE_URL", &c.Images.Minio.PublicBaseURL),
		dur("MINIO_PRESIGN_EXPIRY", &c.Images.Minio.PresignExpiry),
		str("FORM_LOCALE", &c.Form.Locale),
		dur("FORM_NOTIFICATION_DURATION", &c.Form.NotificationDuration),
		str("FORM_TEMPLATES_DIR", &c.Form.TemplatesDir),
		boolean("FORM_DEBUG_TEMPLATES", &c.Form.DebugTemplates),
		str("LOGGER_MODE", &c.Logger.Mode),
		boolean("LOGGER_FILE_ENABLE", &c.Logger.FileEnable),
		str("LOGGER_FILENAME", &c.Logger.Filename),
	}
}

func str(key string, dst *string) binding {
	return binding{key: key, set: func(raw string) error {
		*dst = strings.TrimSpace(raw)
		return nil
	}}
}

func boolean(key string, dst *bool) binding {
	return binding{key: key, set: func(raw string) error {
		v, err := cast.ToBoolE(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// dur accepts Go durations ("1500ms") and bare integers, read as seconds.
func dur(key string, dst *time.Duration) binding {
	return binding{key: key, set: func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*dst = 0
			return nil
		}
		if n, err := cast.ToInt64E(raw); err == nil {
			*dst = time.Duration(n) * time.Second
			return nil
		}
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// Validate reports every missing or inconsistent value.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("backend.timeout must not be negative"))
	}
	switch c.Images.Provider {
	case ProviderImgur:
		if strings.TrimSpace(c.Images.Imgur.ClientID) == "" {
			errs = append(errs, errors.New("images.imgur.client_id is required"))
		}
	case ProviderMinio:
		m := c.Images.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			errs = append(errs, errors.New("images.minio needs endpoint, access_key, secret_key and bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("images.provider %q is not one of %s, %s", c.Images.Provider, ProviderImgur, ProviderMinio))
	}
	switch c.Logger.Mode {
	case "production", "development":
	default:
		errs = append(errs, fmt.Errorf("logger.mode %q is not production or development", c.Logger.Mode))
	}
	if c.Logger.FileEnable && strings.TrimSpace(c.Logger.Filename) == "" {
		errs = append(errs, errors.New("logger.filename is required when file_enable is set"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
