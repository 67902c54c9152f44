// Package config loads homedns settings from defaults and DNS_ prefixed
// environment variables and validates them.
package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Bind is the local IP address the listener binds to.
	Bind string `koanf:"bind" validate:"required,ip"`

	// Port is the UDP port the DNS listener binds to.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// Zones are the domain suffixes this responder is authoritative for.
	Zones []string `koanf:"zones" validate:"required,min=1,dive,zone_name"`

	// TTL is the time-to-live, in seconds, put on every answer.
	TTL uint32 `koanf:"ttl"`

	// NXDomain makes misses answer NXDOMAIN (and out-of-zone names REFUSED)
	// instead of an empty NOERROR response.
	NXDomain bool `koanf:"nxdomain"`

	// StoreBackend selects the record store implementation. sqlite allows the
	// records commands to write while the daemon serves; bolt locks the file
	// for a single process.
	StoreBackend string `koanf:"store_backend" validate:"required,oneof=bolt sqlite"`

	// StorePath is the database file of the record store.
	StorePath string `koanf:"store_path" validate:"required"`

	// SeedFile optionally names a YAML, JSON or TOML file whose records are
	// imported into the store at startup. Existing hostnames are left alone.
	SeedFile string `koanf:"seed_file"`
}

// Address returns the host:port the listener binds to.
func (c AppConfig) Address() string {
	return net.JoinHostPort(c.Bind, fmt.Sprint(c.Port))
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:          "prod",
	LogLevel:     "info",
	Bind:         "0.0.0.0",
	Port:         53,
	Zones:        []string{"home.ne.jp"},
	TTL:          300,
	NXDomain:     false,
	StoreBackend: "sqlite",
	StorePath:    "/var/lib/homedns/records.db",
	SeedFile:     "",
}

// validZoneName reports whether the field is a usable zone suffix: one or more
// dot separated labels of letters, digits and hyphens, each 1-63 octets, with
// an optional trailing dot.
func validZoneName(fl validator.FieldLevel) bool {
	name := strings.TrimSuffix(strings.TrimSpace(fl.Field().String()), ".")
	if name == "" || len(name) > 253 {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
	}
	return true
}

// envLoader loads environment variables with the prefix "DNS_".
// It lowercases the keys, removes the prefix, and splits values containing
// spaces or commas into lists. It is a variable so tests can replace it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into the provided Koanf instance
// using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "zone_name" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("zone_name", validZoneName)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	zones := make([]string, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		zones = append(zones, strings.ToLower(strings.TrimSuffix(strings.TrimSpace(z), ".")))
	}
	cfg.Zones = zones

	return &cfg, nil
}
