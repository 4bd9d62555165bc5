package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	FacultyRoot string
	MakeCommand string
	LogLevel    string
}

func Load() Config {
	godotenv.Load()

	return Config{
		FacultyRoot: getEnv("ASGN_FACULTY_ROOT", "/home/fac"),
		MakeCommand: getEnv("ASGN_MAKE", "make"),
		LogLevel:    getEnv("ASGN_LOG_LEVEL", "warning"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
