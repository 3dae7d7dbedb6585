// Package installer bootstraps the host: platform packages, the installation
// tree, the base hub config, the admin account and its API token, and the
// systemd unit. Run once per host; re-running is safe where the underlying
// commands are.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/classroom-sre/hub-manager/internal/log"
	"github.com/classroom-sre/hub-manager/pkg/config"
	"github.com/classroom-sre/hub-manager/pkg/hubconfig"
)

// commandRunner executes external commands. Run inherits the process
// environment; Output additionally captures stdout, trimmed.
type commandRunner interface {
	Run(dir string, name string, args ...string) error
	Output(dir string, name string, args ...string) (string, error)
}

type systemUsers interface {
	Exists(name string) bool
	Create(name string, password string) error
}

func New(logger *slog.Logger, cfg config.Config, store *hubconfig.Store, runner commandRunner, users systemUsers) *Service {
	return &Service{
		logger:           logger,
		cfg:              cfg,
		store:            store,
		runner:           runner,
		users:            users,
		globalConfigPath: "/etc/jupyter/nbgrader_config.py",
		unitPath:         "/etc/systemd/system/jupyterhub.service",
	}
}

type Service struct {
	logger           *slog.Logger
	cfg              config.Config
	store            *hubconfig.Store
	runner           commandRunner
	users            systemUsers
	globalConfigPath string
	unitPath         string
}

// Options tune the install. SkipPackages leaves the system package state
// alone, for hosts prepared by other means. Systemd controls whether the unit
// is written and started.
type Options struct {
	SkipPackages bool
	Systemd      bool
}

// seedPort is the first service port handed out; the counter decreases from
// here.
const seedPort = 9999

var packageCommands = [][]string{
	{"apt", "update"},
	{"apt", "upgrade", "-o", "Dpkg::Options::=--force-confold", "-y"},
	{"apt", "install", "-y", "npm", "python3-pip"},
	{"npm", "install", "-g", "configurable-http-proxy"},
	{"pip3", "install", "-U", "jupyter", "jupyterhub"},
}

const graderPlatformRepo = "https://github.com/Lapin-Blanc/nbgrader"

// Install runs the whole bootstrap sequence.
func (s *Service) Install(ctx context.Context, opts Options) error {
	ctx = log.WithOperation(ctx, "install")

	if !opts.SkipPackages {
		ctx = s.step(ctx, "install-packages")
		for _, command := range packageCommands {
			if err := s.runner.Run("", command[0], command[1:]...); err != nil {
				return err
			}
		}
	}

	ctx = s.step(ctx, "create-directories")
	if err := s.createTree(); err != nil {
		return err
	}

	ctx = s.step(ctx, "write-base-config")
	if err := s.store.Rewrite(baseConfig()); err != nil {
		return err
	}

	if !opts.SkipPackages {
		ctx = s.step(ctx, "install-grading-platform")
		if err := s.installGradingPlatform(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.globalConfigPath), 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", filepath.Dir(s.globalConfigPath), err)
	}
	if err := os.WriteFile(s.globalConfigPath, []byte(globalGraderConfig), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", s.globalConfigPath, err)
	}

	ctx = s.step(ctx, "create-admin-account", "admin", s.cfg.AdminUser)
	if !s.users.Exists(s.cfg.AdminUser) {
		if err := s.users.Create(s.cfg.AdminUser, s.cfg.AdminPassword); err != nil {
			return err
		}
	}
	if err := s.store.Append(hubconfig.AdminUserStatement(s.cfg.AdminUser)); err != nil {
		return err
	}

	ctx = s.step(ctx, "generate-admin-token")
	token, err := s.runner.Output(s.cfg.HubRoot, "jupyterhub", "token", s.cfg.AdminUser)
	if err != nil {
		return fmt.Errorf("generating admin token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("jupyterhub token produced no output")
	}
	if err := s.store.Append(hubconfig.AdminTokenStatement(token)); err != nil {
		return err
	}

	if opts.Systemd {
		ctx = s.step(ctx, "install-systemd-unit", "unit", s.unitPath)
		if err := os.WriteFile(s.unitPath, []byte(systemdUnit(s.cfg)), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", s.unitPath, err)
		}
		if err := s.runner.Run("", "systemctl", "start", "jupyterhub"); err != nil {
			return err
		}
		if err := s.runner.Run("", "systemctl", "enable", "jupyterhub"); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "install finished", "config", s.store.Path())
	return nil
}

func (s *Service) createTree() error {
	for _, dir := range []string{s.cfg.SrvRoot, s.cfg.GraderRoot, s.cfg.HubRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	// the exchange is world-writable, students and graders trade files there
	if err := os.MkdirAll(s.cfg.ExchangeRoot, 0o777); err != nil {
		return fmt.Errorf("creating %q: %w", s.cfg.ExchangeRoot, err)
	}
	if err := os.Chmod(s.cfg.ExchangeRoot, 0o777); err != nil {
		return fmt.Errorf("chmodding %q: %w", s.cfg.ExchangeRoot, err)
	}
	return nil
}

func (s *Service) installGradingPlatform() error {
	if _, err := os.Stat(filepath.Join(s.cfg.GraderRoot, ".git")); os.IsNotExist(err) {
		if err := s.runner.Run("", "git", "clone", graderPlatformRepo, s.cfg.GraderRoot); err != nil {
			return err
		}
	}
	steps := [][]string{
		{"pip3", "install", "-U", "-r", "requirements.txt", "-e", "."},
		{"jupyter", "nbextension", "install", "--symlink", "--sys-prefix", "--py", "nbgrader", "--overwrite"},
		{"jupyter", "nbextension", "disable", "--sys-prefix", "--py", "nbgrader"},
		{"jupyter", "serverextension", "disable", "--sys-prefix", "--py", "nbgrader"},
		{"jupyter", "nbextension", "enable", "--sys-prefix", "validate_assignment/main", "--section=notebook"},
		{"jupyter", "serverextension", "enable", "--sys-prefix", "nbgrader.server_extensions.validate_assignment"},
	}
	for _, command := range steps {
		if err := s.runner.Run(s.cfg.GraderRoot, command[0], command[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) step(ctx context.Context, name string, args ...any) context.Context {
	ctx = log.WithStep(ctx, name)
	s.logger.InfoContext(ctx, name, args...)
	return ctx
}

func baseConfig() []string {
	return []string{
		"c = get_config()",
		"c.LocalAuthenticator.create_system_users = True",
		"c.Authenticator.admin_users = set()",
		"c.JupyterHub.load_groups = {}",
		"c.JupyterHub.services = []",
		hubconfig.NextPortStatement(seedPort),
		"### End of basic config",
	}
}

const globalGraderConfig = `from nbgrader.auth import JupyterHubAuthPlugin
c = get_config()
c.Exchange.path_includes_course = True
c.Authenticator.plugin_class = JupyterHubAuthPlugin
`

func systemdUnit(cfg config.Config) string {
	return fmt.Sprintf(`[Unit]
Description=Jupyterhub
After=syslog.target network.target

[Service]
User=root
Environment="PATH=/bin:/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin"
ExecStart=/usr/local/bin/jupyterhub -f %s
WorkingDirectory=%s
StandardOutput=file:/var/log/jupyterhub.log
StandardError=file:/var/log/jupyterhub-error.log

[Install]
WantedBy=multi-user.target
`, cfg.HubConfigFile, strings.TrimRight(cfg.HubRoot, "/")+"/")
}
