package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the secrets file kept in the config directory.
const EnvFileName = ".env"

// LoadDotEnv copies variables from each file into the process environment.
// Variables already set are left alone, so earlier files and the real
// environment take precedence. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); exists {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SaveSecret writes key=value into dir/.env, keeping any other entries,
// and sets it in the current process.
func SaveSecret(dir, key, value string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(dir, EnvFileName)

	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		env = map[string]string{}
	}
	env[key] = value

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return err
	}
	return os.Setenv(key, value)
}
