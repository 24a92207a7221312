package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

type Config[T any] struct {
	defaultValue T
	dataDir      string
	envPrefix    string

	value T
}

const DATA_DIR = "data"

var validate = validator.New(validator.WithRequiredStructEnabled())

type Option func(*settings)

type settings struct {
	envPrefix string
}

// WithEnv makes Init apply PREFIX_FIELD_NAME environment variables on top of
// the stored file. Overrides are never written back to disk.
func WithEnv(prefix string) Option {
	return func(s *settings) {
		s.envPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") + "_"
	}
}

func New[T any](defaultValue T, dataDir *string, opts ...Option) *Config[T] {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	dir := DATA_DIR
	if dataDir != nil && *dataDir != "" {
		dir = *dataDir
	}
	return &Config[T]{defaultValue: defaultValue, dataDir: dir, envPrefix: s.envPrefix}
}

func (c *Config[T]) filePath() string {
	name := reflect.TypeFor[T]().Name()
	return path.Join(c.dataDir, "config", name+".json")
}

func (c *Config[T]) Init() error {
	c.value = c.defaultValue
	create := false

	b, err := os.ReadFile(c.filePath())
	switch {
	case os.IsNotExist(err):
		create = true
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(b, &c.value); err != nil {
			return fmt.Errorf("failed to parse %s: %w", c.filePath(), err)
		}
	}

	// defaults reach disk only once they validate, env overrides stay in memory
	if create {
		if err := Validate(c.value); err != nil {
			return fmt.Errorf("invalid default %s: %w", reflect.TypeFor[T]().Name(), err)
		}
		if err := c.write(c.value); err != nil {
			return err
		}
	}

	if c.envPrefix != "" {
		if err := c.applyEnv(os.Environ()); err != nil {
			return err
		}
	}

	if err := Validate(c.value); err != nil {
		return fmt.Errorf("invalid %s: %w", reflect.TypeFor[T]().Name(), err)
	}
	return nil
}

func (c *Config[T]) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Get() T {
	return c.value
}

func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	if err := c.write(temp); err != nil {
		return err
	}
	c.value = temp
	return nil
}

func (c *Config[T]) write(v T) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(c.filePath()), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.filePath(), b, 0644)
}

// Validate runs the `validate` struct tags of v. Non struct values pass.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(v)
}

func (c *Config[T]) applyEnv(environ []string) error {
	overrides := make(map[string]any)
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, c.envPrefix) {
			continue
		}
		overrides[strings.TrimPrefix(key, c.envPrefix)] = val
	}
	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &c.value,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		MatchName: func(mapKey, fieldName string) bool {
			return normalize(mapKey) == normalize(fieldName)
		},
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("failed to apply %s* overrides: %w", c.envPrefix, err)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
