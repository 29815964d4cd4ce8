package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	// MessagesStore selects the message repository backend: memory, mongo or scylla.
	MessagesStore string

	MongoURI string
	MongoDB  string

	ScyllaHosts       []string
	ScyllaKeyspace    string
	ScyllaUsername    string
	ScyllaPassword    string
	ScyllaTimeout     time.Duration
	ScyllaReplication int

	KafkaBrokers     []string
	KafkaTopicPrefix string

	// AuthTokens maps bearer tokens to user identifiers; the stand-in for
	// the external identity service in local runs.
	AuthTokens map[string]string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MessagesStore:  strings.ToLower(getEnv("MESSAGES_STORE", "memory")),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "clozet"),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "clozet"),
		ScyllaUsername: os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),

		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
	}

	if hosts := getEnv("SCYLLA_HOSTS", ""); hosts != "" {
		cfg.ScyllaHosts = splitList(hosts)
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	timeout, err := parseDurationEnv("SCYLLA_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ScyllaTimeout = timeout

	replication, err := parseIntEnv("SCYLLA_REPLICATION_FACTOR", 1)
	if err != nil {
		return Config{}, err
	}
	cfg.ScyllaReplication = replication

	cfg.AuthTokens = parseTokenMap(os.Getenv("AUTH_TOKENS"))

	switch cfg.MessagesStore {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when MESSAGES_STORE=mongo")
		}
	case "scylla":
		if len(cfg.ScyllaHosts) == 0 {
			return Config{}, fmt.Errorf("SCYLLA_HOSTS is required when MESSAGES_STORE=scylla")
		}
	default:
		return Config{}, fmt.Errorf("unknown MESSAGES_STORE %q", cfg.MessagesStore)
	}
	return cfg, nil
}

// parseTokenMap reads "token=user,token=user" pairs.
func parseTokenMap(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range splitList(raw) {
		token, user, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		token = strings.TrimSpace(token)
		user = strings.TrimSpace(user)
		if token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	return tokens
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
