package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/clipxfer/limits"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CLIPXFER"

// Keys shared by flags, environment variables and configuration files.
const (
	KeyProtocol      = "protocol"
	KeyCadence       = "cadence"
	KeyInterval      = "interval"
	KeyOffset        = "offset"
	KeyChunk         = "chunk"
	KeyNoWaitFirst   = "no-wait-first"
	KeyRecursive     = "recursive"
	KeyExtensions    = "ext"
	KeyOut           = "out"
	KeyOutDir        = "out-dir"
	KeyAppend        = "append"
	KeyTimeout       = "timeout"
	KeyTransport     = "transport"
	KeyTransportFile = "transport-file"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyLogFile       = "log-file"
)

// Default values.
const (
	DefaultProtocol   = "header-crc"
	DefaultInterval   = 10 * time.Second
	DefaultRecvOffset = 5 * time.Second
	DefaultChunk      = "4m"
	DefaultLogLevel   = "info"
)

// ErrInvalidConfig indicates a setting outside its allowed values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Role selects which side of a transfer is configured.
type Role string

const (
	RoleSend Role = "send"
	RoleRecv Role = "recv"
)

// CadenceMode selects how frames or polls are paced.
type CadenceMode string

const (
	CadenceInterval CadenceMode = "interval"
	CadenceAligned  CadenceMode = "aligned"
	CadenceManual   CadenceMode = "manual"
)

// TransportKind selects the shared buffer.
type TransportKind string

const (
	TransportClipboard TransportKind = "clipboard"
	TransportFile      TransportKind = "file"
)

// Config holds every setting of a send or receive run.
type Config struct {
	Role     Role
	Protocol string

	Cadence     CadenceMode
	Interval    time.Duration
	Offset      time.Duration
	NoWaitFirst bool

	// ChunkSize is the payload size in base64 characters.
	ChunkSize int

	// Sender source selection.
	Recursive  bool
	Extensions []string

	// Receiver output, exactly one of Out and OutDir.
	Out     string
	OutDir  string
	Append  bool
	Timeout time.Duration

	Transport     TransportKind
	TransportFile string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// NewViper returns a viper instance reading CLIPXFER_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the defaults for role on v.
func SetDefaults(v *viper.Viper, role Role) {
	v.SetDefault(KeyProtocol, DefaultProtocol)
	v.SetDefault(KeyCadence, string(CadenceAligned))
	v.SetDefault(KeyInterval, DefaultInterval)
	v.SetDefault(KeyChunk, DefaultChunk)
	v.SetDefault(KeyNoWaitFirst, false)
	v.SetDefault(KeyRecursive, false)
	v.SetDefault(KeyExtensions, []string{})
	v.SetDefault(KeyAppend, false)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyTransport, string(TransportClipboard))
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, "text")

	if role == RoleRecv {
		v.SetDefault(KeyOffset, DefaultRecvOffset)
	} else {
		v.SetDefault(KeyOffset, time.Duration(0))
	}
}

// ReadFile merges the configuration file at path into v. An empty path is a
// no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "ReadFile",
		"path":     v.ConfigFileUsed(),
	}).Debug("Configuration file loaded")
	return nil
}

// Load builds a Config for role from v and validates it.
func Load(v *viper.Viper, role Role) (*Config, error) {
	chunk, err := limits.ParseSize(v.GetString(KeyChunk))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyChunk, err)
	}

	cfg := &Config{
		Role:          role,
		Protocol:      strings.ToLower(strings.TrimSpace(v.GetString(KeyProtocol))),
		Cadence:       CadenceMode(strings.ToLower(strings.TrimSpace(v.GetString(KeyCadence)))),
		Interval:      v.GetDuration(KeyInterval),
		Offset:        v.GetDuration(KeyOffset),
		NoWaitFirst:   v.GetBool(KeyNoWaitFirst),
		ChunkSize:     chunk,
		Recursive:     v.GetBool(KeyRecursive),
		Extensions:    v.GetStringSlice(KeyExtensions),
		Out:           v.GetString(KeyOut),
		OutDir:        v.GetString(KeyOutDir),
		Append:        v.GetBool(KeyAppend),
		Timeout:       v.GetDuration(KeyTimeout),
		Transport:     TransportKind(strings.ToLower(strings.TrimSpace(v.GetString(KeyTransport)))),
		TransportFile: v.GetString(KeyTransportFile),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		LogFile:       v.GetString(KeyLogFile),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleSend, RoleRecv:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, c.Role)
	}

	switch c.Protocol {
	case "header-crc", "control":
	default:
		return fmt.Errorf("%w: protocol must be header-crc or control, got %q", ErrInvalidConfig, c.Protocol)
	}

	if err := c.validateCadence(); err != nil {
		return err
	}

	if err := limits.ValidateChunkSize(c.ChunkSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Role == RoleRecv {
		// Control data frames carry no sequence number, so equal chunks are
		// only told apart by an operator reading each one.
		if c.Protocol == "control" && c.Cadence != CadenceManual {
			return fmt.Errorf("%w: receiving the control protocol needs --cadence manual, got %q", ErrInvalidConfig, c.Cadence)
		}
		if (c.Out == "") == (c.OutDir == "") {
			return fmt.Errorf("%w: specify exactly one of --out or --out-dir", ErrInvalidConfig)
		}
		if c.Timeout < 0 {
			return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
		}
	}

	switch c.Transport {
	case TransportClipboard:
	case TransportFile:
		if c.TransportFile == "" {
			return fmt.Errorf("%w: --transport-file is required with the file transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: transport must be clipboard or file, got %q", ErrInvalidConfig, c.Transport)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	return nil
}

func (c *Config) validateCadence() error {
	switch c.Cadence {
	case CadenceManual:
		return nil
	case CadenceInterval:
		if c.Interval < 0 {
			return fmt.Errorf("%w: interval cannot be negative", ErrInvalidConfig)
		}
		return nil
	case CadenceAligned:
		if c.Interval <= 0 {
			return fmt.Errorf("%w: aligned cadence needs a positive interval", ErrInvalidConfig)
		}
		if c.Offset < 0 || c.Offset >= c.Interval {
			return fmt.Errorf("%w: offset %v must lie in [0, %v)", ErrInvalidConfig, c.Offset, c.Interval)
		}
		return nil
	default:
		return fmt.Errorf("%w: cadence must be interval, aligned or manual, got %q", ErrInvalidConfig, c.Cadence)
	}
}

// AllowRepeats reports whether the receiver should process identical
// consecutive snapshots. Only an operator stepping manually can tell two equal
// chunks apart.
func (c *Config) AllowRepeats() bool {
	return c.Cadence == CadenceManual
}
