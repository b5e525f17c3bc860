package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/set"
	"github.com/joho/godotenv"
)

// Env resolves configuration keys from dotenv files, with the process
// environment taking precedence.
type Env struct {
	dotEnv map[string]string
}

// Load reads the given dotenv files; missing files are skipped. With no
// arguments ".env" is tried.
func Load(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	merged := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		values, err := godotenv.Read(f)
		if err != nil {
			return nil, errors.Wrap(err, "error in reading dotenv file %s", f)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return &Env{dotEnv: merged}, nil
}

func (e *Env) Get(key string) string {
	value := e.dotEnv[key]

	if v := os.Getenv(key); v != "" {
		value = v
	}

	return value
}

func (e *Env) Default(key, def string) string {
	value := e.Get(key)
	if value == "" {
		return def
	}
	return value
}

func (e *Env) Required(key string) (string, error) {
	value := e.Get(key)
	if value == "" {
		return "", errors.Newf("`%s` is not set or is empty", key)
	}
	return value, nil
}

func (e *Env) Int(key string, def int) (int, error) {
	value := e.Get(key)
	if value == "" {
		return def, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrap(err, "`%s` is not an integer", key)
	}
	return i, nil
}

func (e *Env) Bool(key string, def bool) (bool, error) {
	value := e.Get(key)
	if value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrap(err, "`%s` is not a boolean", key)
	}
	return b, nil
}

func (e *Env) Duration(key string, def time.Duration) (time.Duration, error) {
	value := e.Get(key)
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrap(err, "`%s` is not a duration", key)
	}
	return d, nil
}

// Set parses a comma separated value; blank segments are dropped.
func (e *Env) Set(key string) set.Set[string] {
	return ParseCommaSeperatedAsSet(e.Get(key))
}

func ParseCommaSeperatedAsSet(input string) set.Set[string] {
	output := set.Set[string]{}
	for _, seg := range strings.Split(input, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			output.Add(seg)
		}
	}

	return output
}
