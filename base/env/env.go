package env

import (
	"os"
)

// PodName example: k8ssta-auctiond-6868d88fbd-bz8zv
func PodName() string {
	return os.Getenv("PODNAME")
}

// EnvName example: k8ssta
func EnvName() string {
	return os.Getenv("ENV_NAME")
}

// AppName example: auctiond
func AppName() string {
	return os.Getenv("APP_NAME")
}

// ConfigFile returns the config file path set by AUCTIOND_CONFIG, or def
func ConfigFile(def string) string {
	if v := os.Getenv("AUCTIOND_CONFIG"); v != "" {
		return v
	}
	return def
}
