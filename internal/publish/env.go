package publish

import "os"

// EnvReader defines an interface for environment variable access.
type EnvReader interface {
	Getenv(key string) string
}

// OSEnv implements EnvReader using the process environment.
type OSEnv struct{}

// Getenv returns the value of the environment variable named by key.
func (OSEnv) Getenv(key string) string {
	return os.Getenv(key)
}

// MapEnv is an EnvReader backed by a map, e.g. the parsed contents of a .env file.
type MapEnv map[string]string

// Getenv returns m[key].
func (m MapEnv) Getenv(key string) string {
	return m[key]
}

// ChainEnv returns the first non-empty value in order.
type ChainEnv []EnvReader

// Getenv implements EnvReader.
func (c ChainEnv) Getenv(key string) string {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v := r.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
