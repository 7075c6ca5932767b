package buildCFG

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"clubhub/internal/mailer"
	"clubhub/internal/model"
)

type ServerConfig struct {
	Port string
	Mode string
}

type RabbitConfig struct {
	Url            string
	Exchange       string
	Queue          string
	PublishTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RelayConfig struct {
	Port      string
	Heartbeat time.Duration
	Buffer    int
}

type MailConfig struct {
	Enabled bool
	mailer.Config
}

type WorkflowConfig struct {
	BypassRoles []model.Role
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		log.Warn().Msg("server.port not set, using 8080")
		port = "8080"
	}
	mode := cfg.GetString("server.mode")
	if mode == "" {
		mode = "release"
	}
	return ServerConfig{Port: port, Mode: mode}
}

// BuildDBConfig returns the arguments dbpg.New expects.
func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("db.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, errors.New("db.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("db.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: cfg.GetDuration("db.conn_max_lifetime"),
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 30 * time.Minute
	}
	log.Debug().
		Int("slaves", len(slaveDSNs)).
		Int("max_open_conns", opts.MaxOpenConns).
		Msg("database config loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildMigrationsDir(cfg *config.Config) string {
	if dir := cfg.GetString("db.migrations_dir"); dir != "" {
		return dir
	}
	return "migrations/postgres"
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:            cfg.GetString("rabbit.url"),
		Exchange:       cfg.GetString("rabbit.exchange"),
		Queue:          cfg.GetString("rabbit.queue"),
		PublishTimeout: cfg.GetDuration("rabbit.publish_timeout"),
	}
	if rc.Url == "" {
		return rc, errors.New("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "club.events"
	}
	if rc.Queue == "" {
		rc.Queue = "club.events.relay"
	}
	if rc.PublishTimeout <= 0 {
		rc.PublishTimeout = 2 * time.Second
	}
	log.Debug().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config loaded")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config) (AuthConfig, error) {
	ac := AuthConfig{
		JWTSecret: cfg.GetString("auth.jwt_secret"),
		TokenTTL:  cfg.GetDuration("auth.token_ttl"),
	}
	if len(ac.JWTSecret) < 16 {
		return ac, errors.New("auth.jwt_secret must be at least 16 characters")
	}
	return ac, nil
}

func BuildRelayConfig(cfg *config.Config) RelayConfig {
	rc := RelayConfig{
		Port:      cfg.GetString("relay.port"),
		Heartbeat: cfg.GetDuration("relay.heartbeat"),
		Buffer:    cfg.GetInt("relay.buffer"),
	}
	if rc.Port == "" {
		rc.Port = "8081"
	}
	return rc
}

func BuildMailConfig(cfg *config.Config) (MailConfig, error) {
	mc := MailConfig{
		Enabled: cfg.GetBool("mail.enabled"),
		Config: mailer.Config{
			Host:     cfg.GetString("mail.host"),
			Port:     cfg.GetInt("mail.port"),
			From:     cfg.GetString("mail.from"),
			Password: cfg.GetString("mail.password"),
		},
	}
	if !mc.Enabled {
		return mc, nil
	}
	if mc.Host == "" || mc.From == "" {
		return mc, errors.New("mail.host and mail.from are required when mail is enabled")
	}
	if mc.Port == 0 {
		mc.Port = 587
	}
	return mc, nil
}

func BuildWorkflowConfig(cfg *config.Config) WorkflowConfig {
	var wc WorkflowConfig
	for _, r := range cfg.GetStringSlice("workflow.bypass_roles") {
		if role := model.ParseRole(r); role.Known() {
			wc.BypassRoles = append(wc.BypassRoles, role)
		}
	}
	return wc
}
