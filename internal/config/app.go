package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads a .env file from the working directory into the environment,
// if one exists. Variables already set take precedence.
func Load(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && len(filenames) == 0 && os.IsNotExist(err) {
		return nil
	}
	return err
}

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

// Addr returns the listen address built from APP_PORT, ":8080" by default.
func Addr() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	if !ok {
		return false
	}
	return development != "0"
}

func lookupInt(key string, fallback int) int {
	s, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
