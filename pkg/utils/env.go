package utils

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadConfig loads a .env file from the given path if one exists.
// Missing files are not an error; real deployments configure via environment.
func LoadConfig(path string) {
	if err := godotenv.Load(path + "/.env"); err != nil {
		logrus.Debugf("no .env file loaded from %s: %v", path, err)
	}
}
