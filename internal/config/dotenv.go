package config

import (
	"bufio"
	"os"
	"strings"
)

// LoadDotEnv reads a .env file and exports its entries into the process
// environment. Variables already set in the environment win, so real
// deploy config is never shadowed by a stray local file.
func LoadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err // missing file is normal outside local dev
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, value)
	}

	return scanner.Err()
}
