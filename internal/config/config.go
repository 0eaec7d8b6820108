package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ErrInvalidMinPlayers     = errors.New("game.min-players must be at least 1")
	ErrInvalidQueueSize      = errors.New("session.queue-size must be at least 1")
	ErrInvalidOverflowPolicy = errors.New("session.overflow-policy must be disconnect or drop-oldest")
	ErrInvalidTimeout        = errors.New("session timeouts must be positive")
	ErrInvalidMessageSize    = errors.New("session.max-message-size must be positive")
	ErrSamePorts             = errors.New("http-port and socket-port must differ")
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	CORS       CORS    `yaml:"cors"`
	Game       Game    `yaml:"game"`
	Session    Session `yaml:"session"`
	Redis      Redis   `yaml:"redis"`
}

type CORS struct {
	AllowOrigin string `yaml:"allow-origin" env:"CORS_ALLOW_ORIGIN" env-default:"http://localhost:8080"`
}

// Fields whose zero value is meaningful carry no env-default: cleanenv would overwrite
// an explicit 0 or false from the file. Their defaults come from newDefault.
type Game struct {
	MinPlayers int `yaml:"min-players" env:"GAME_MIN_PLAYERS"`
	// WinScore ends the game once a player reaches it; 0 keeps the game running forever.
	WinScore           int  `yaml:"win-score" env:"GAME_WIN_SCORE"`
	RemoveOnDisconnect bool `yaml:"remove-on-disconnect" env:"GAME_REMOVE_ON_DISCONNECT"`
}

type Session struct {
	QueueSize      int           `yaml:"queue-size" env:"SESSION_QUEUE_SIZE"`
	OverflowPolicy string        `yaml:"overflow-policy" env:"SESSION_OVERFLOW_POLICY" env-default:"disconnect"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env:"SESSION_WRITE_TIMEOUT" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong-wait" env:"SESSION_PONG_WAIT" env-default:"60s"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"SESSION_MAX_MESSAGE_SIZE" env-default:"4096"`
}

type Redis struct {
	Enabled   bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host      string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	KeyPrefix string `yaml:"key-prefix" env:"REDIS_KEY_PREFIX" env-default:"gridclash"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the file, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	config := newDefault()

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func newDefault() *Config {
	return &Config{
		Game: Game{
			MinPlayers:         2,
			RemoveOnDisconnect: true,
		},
		Session: Session{
			QueueSize: 32,
		},
	}
}

func (that *Config) Validate() error {
	switch {
	case that.Game.MinPlayers < 1:
		return ErrInvalidMinPlayers
	case that.Session.QueueSize < 1:
		return ErrInvalidQueueSize
	case that.Session.OverflowPolicy != "disconnect" && that.Session.OverflowPolicy != "drop-oldest":
		return ErrInvalidOverflowPolicy
	case that.Session.WriteTimeout <= 0 || that.Session.PongWait <= 0:
		return ErrInvalidTimeout
	case that.Session.MaxMessageSize <= 0:
		return ErrInvalidMessageSize
	case that.HTTPPort == that.SocketPort:
		return ErrSamePorts
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
