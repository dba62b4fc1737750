package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds everything needed to run one book.
type Config struct {
	// Book
	TickSize float64

	// Order queue and matching loop
	QueueSize   int
	IdlePolls   int
	IdleBackoff time.Duration
	ExitOnIdle  bool

	// Notifications
	NotifyBuffer int
	KafkaBrokers []string // Empty disables the Kafka sink
	KafkaTopic   string
	JournalDir   string // Empty disables the journal

	// Diagnostics
	LogLevel   string
	DumpOnExit bool
}

// Load parses args, falling back to RINGBOOK_* environment variables and then
// to built-in defaults.
func Load(args []string) (*Config, error) {
	c := &Config{}
	fs := flag.NewFlagSet("ringbook", flag.ContinueOnError)

	fs.Float64Var(&c.TickSize, "tick", envFloat("RINGBOOK_TICK_SIZE", 0.05), "Price tick size")

	fs.IntVar(&c.QueueSize, "queue-size", envInt("RINGBOOK_QUEUE_SIZE", 1<<16), "Order queue slots (holds one less)")
	fs.IntVar(&c.IdlePolls, "idle-polls", envInt("RINGBOOK_IDLE_POLLS", 1<<10), "Empty polls before the matching loop is idle (0 = never)")
	fs.DurationVar(&c.IdleBackoff, "idle-backoff", envDuration("RINGBOOK_IDLE_BACKOFF", 50*time.Microsecond), "Sleep between polls once idle")
	fs.BoolVar(&c.ExitOnIdle, "exit-on-idle", envBool("RINGBOOK_EXIT_ON_IDLE", false), "Stop the matching loop once idle")

	fs.IntVar(&c.NotifyBuffer, "notify-buffer", envInt("RINGBOOK_NOTIFY_BUFFER", 1<<14), "Notification ring slots per async sink")
	brokers := fs.String("kafka-brokers", envStr("RINGBOOK_KAFKA_BROKERS", ""), "Comma separated Kafka brokers (empty = disabled)")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", envStr("RINGBOOK_KAFKA_TOPIC", "ringbook.notifications"), "Kafka topic for notifications")
	fs.StringVar(&c.JournalDir, "journal-dir", envStr("RINGBOOK_JOURNAL_DIR", ""), "Pebble directory for the notification journal (empty = disabled)")

	fs.StringVar(&c.LogLevel, "log-level", envStr("RINGBOOK_LOG_LEVEL", "info"), "Log level")
	fs.BoolVar(&c.DumpOnExit, "dump", envBool("RINGBOOK_DUMP", false), "Print resting orders on exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.KafkaBrokers = splitList(*brokers)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.TickSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick size %v must be positive", ErrInvalidConfig, c.TickSize))
	}
	if c.QueueSize < 2 {
		errs = append(errs, fmt.Errorf("%w: queue size %d must be at least 2", ErrInvalidConfig, c.QueueSize))
	}
	if c.NotifyBuffer < 2 {
		errs = append(errs, fmt.Errorf("%w: notify buffer %d must be at least 2", ErrInvalidConfig, c.NotifyBuffer))
	}
	if c.IdlePolls < 0 {
		errs = append(errs, fmt.Errorf("%w: idle polls %d must not be negative", ErrInvalidConfig, c.IdlePolls))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, fmt.Errorf("%w: kafka topic required with brokers", ErrInvalidConfig))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level. Validate has already checked it.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
