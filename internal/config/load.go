package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrConfigFailedToSetDefaults = errors.New("error occurred while setting defaults")
	ErrConfigPath                = errors.New("config path error")
)

const envPrefix = "SPILLOVER"

// Load builds the configuration from defaults, an optional config file found in
// configFileDirs, and SPILLOVER_* environment variables, in increasing precedence.
func Load(configFileDirs ...string) (Config, error) {
	v := viper.New()
	cfg := getDefaultConfig()

	err := setDefaults(v, cfg)
	if err != nil {
		return Config{}, err
	}

	err = overrideWithFiles(v, configFileDirs...)
	if err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.Unmarshal(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return *cfg, nil
}

func setDefaults(v *viper.Viper, defaultConfig *Config) error {
	defaultsMap := make(map[string]interface{})

	if err := mapstructure.Decode(defaultConfig, &defaultsMap); err != nil {
		err = errors.Join(ErrConfigFailedToSetDefaults, err)
		return err
	}

	flat := make(map[string]interface{})
	if err := flatten("", defaultsMap, flat); err != nil {
		return errors.Join(ErrConfigFailedToSetDefaults, err)
	}

	for key, value := range flat {
		v.SetDefault(key, value)
	}

	return nil
}

// flatten turns nested sections into dotted keys so that nested values can be
// overridden from the environment.
func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) error {
	for k, value := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch typed := value.(type) {
		case map[string]interface{}:
			if err := flatten(key, typed, out); err != nil {
				return err
			}
			continue
		}

		if value != nil && reflect.ValueOf(value).Kind() == reflect.Struct {
			nested := make(map[string]interface{})
			if err := mapstructure.Decode(value, &nested); err != nil {
				return err
			}
			if err := flatten(key, nested, out); err != nil {
				return err
			}
			continue
		}

		out[key] = value
	}

	return nil
}

func overrideWithFiles(v *viper.Viper, configFileDirs ...string) error {
	if len(configFileDirs) == 0 || configFileDirs[0] == "" {
		return nil
	}

	for _, path := range configFileDirs {
		stat, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.Join(ErrConfigPath, fmt.Errorf("path: %s does not exist", path))
			}
			return err
		}
		if !stat.IsDir() {
			return errors.Join(ErrConfigPath, fmt.Errorf("path: %s should be a directory", path))
		}

		v.AddConfigPath(path)
	}

	v.SetConfigName("config")

	return v.ReadInConfig()
}
