package config

import (
	"os"
	"path/filepath"
)

// New builds the deployment configuration once at startup. Every value has a
// default matching the standard single-host deployment; environment variables
// override them.
func New() Config {
	srvRoot := envOr("HUB_SRV_ROOT", "/srv/nbgrader")
	hubRoot := envOr("HUB_ROOT", filepath.Join(srvRoot, "jupyterhub"))

	return Config{
		SrvRoot:       srvRoot,
		GraderRoot:    envOr("HUB_GRADER_ROOT", filepath.Join(srvRoot, "nbgrader")),
		HubRoot:       hubRoot,
		ExchangeRoot:  envOr("HUB_EXCHANGE_ROOT", filepath.Join(srvRoot, "exchange")),
		HubConfigFile: envOr("HUB_CONFIG_FILE", filepath.Join(hubRoot, "jupyterhub_config.py")),
		APIURL:        envOr("HUB_API_URL", "http://127.0.0.1:8081/hub/api"),
		AdminUser:     envOr("HUB_ADMIN_USER", "jupyteradmin"),
		AdminPassword: envOr("HUB_ADMIN_PASSWORD", "password"),
		HomeRoot:      envOr("HUB_HOME_ROOT", "/home"),
	}
}

// Config is the fixed deployment configuration. It is constructed once in main
// and passed to every component; nothing mutates it afterwards.
type Config struct {
	// SrvRoot is the root of the installation tree.
	SrvRoot string

	// GraderRoot is the checkout of the grading platform.
	GraderRoot string

	// HubRoot is the hub working directory, home of the hub config file.
	HubRoot string

	// ExchangeRoot is the world-writable assignment exchange directory.
	ExchangeRoot string

	// HubConfigFile is the path of the hub config file, the authoritative
	// persisted state of this tool.
	HubConfigFile string

	// APIURL is the base URL of the hub management API.
	APIURL string

	// AdminUser is the hub admin account created at install time. Its API
	// token is the bearer credential for every management API call.
	AdminUser string

	// AdminPassword is the initial password of the admin account.
	AdminPassword string

	// HomeRoot is the directory holding user home directories.
	HomeRoot string
}

func envOr(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
