package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix for replstorm environment variables.
const EnvPrefix = "REPLSTORM_"

// EnvConfigDir selects the configuration directory. It is consumed
// before settings load and never becomes a settings key.
const EnvConfigDir = "REPLSTORM_CONFIG_DIR"

// EnvLoader loads settings from prefixed environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
}

// NewEnvLoader creates an environment loader with the default mapping.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
	}
}

// defaultEnvMapping maps well-known variables to settings paths that
// the generic underscore conversion cannot derive.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"REPLSTORM_LOG_LEVEL":    "logging.level",
		"REPLSTORM_REPL":         "repl.definition",
		"REPLSTORM_SESSION_NAME": "session.defaultName",
		"REPLSTORM_KILL_GRACE":   "session.killGrace",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, settingsPath string) {
	l.mapping[envVar] = settingsPath
}

// Load reads the process environment into a settings map. Empty values
// are valid values, not unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	settings := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(settings, path, parseValue(val))
		}
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		if name == EnvConfigDir {
			continue
		}
		setByPath(settings, l.envToPath(name), parseValue(value))
	}

	return settings, nil
}

// envToPath converts REPLSTORM_SESSION_WINDOW_BYTES to
// session.windowBytes.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return strings.ToLower(name)
	}

	section := strings.ToLower(parts[0])
	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part == "" {
			continue
		}
		setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return section + "." + setting
}

// parseValue coerces an environment string into bool, int, float, or
// duration where the text allows it.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(settings map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := settings

	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[parts[i]] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
