package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	LogFormat      string
	LogFile        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	OtelEndpoint   string
	FetchTimeout   time.Duration
	ResolveTimeout time.Duration
	FetchRetries   uint64
	RetryBackoff   time.Duration
	ResolveMode    string
	RedisAddr      string
	HistorySize    int
	HistoryDB      string
	HistoryDSN     string
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	CORSOrigins    []string
	CORSDebug      bool
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	logMaxSize, err := parseUintEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseUintEnv(source, "LOG_MAX_BACKUPS", 3)
	if err != nil {
		return Config{}, err
	}
	fetchTimeout, err := parseDurationEnv(source, "FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	resolveTimeout, err := parseDurationEnv(source, "RESOLVE_TIMEOUT", 90*time.Second)
	if err != nil {
		return Config{}, err
	}
	fetchRetries, err := parseUintEnv(source, "FETCH_RETRIES", 2)
	if err != nil {
		return Config{}, err
	}
	retryBackoff, err := parseDurationEnv(source, "RETRY_BACKOFF", 250*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	historySize, err := parseUintEnv(source, "HISTORY_SIZE", 50)
	if err != nil {
		return Config{}, err
	}
	if historySize == 0 {
		return Config{}, errors.New("HISTORY_SIZE must be positive")
	}

	resolveMode := strings.ToLower(stringEnv(source, "RESOLVE_MODE", "sequential"))
	switch resolveMode {
	case "sequential", "parallel":
	default:
		return Config{}, fmt.Errorf("invalid RESOLVE_MODE %q", resolveMode)
	}

	kafkaBrokers, err := parseList(source, "KAFKA_BROKERS", "")
	if err != nil {
		return Config{}, err
	}
	corsOrigins, err := parseList(source, "CORS_ALLOWED_ORIGINS", "*")
	if err != nil {
		return Config{}, err
	}
	corsDebug := false
	if raw, ok := source.Lookup("CORS_DEBUG"); ok && strings.TrimSpace(raw) != "" {
		corsDebug, err = strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid CORS_DEBUG: %w", err)
		}
	}

	return Config{
		HTTPAddr:       stringEnv(source, "HTTP_ADDR", ":8080"),
		LogLevel:       stringEnv(source, "LOG_LEVEL", "info"),
		LogFormat:      stringEnv(source, "LOG_FORMAT", "text"),
		LogFile:        stringEnv(source, "LOG_FILE", ""),
		LogMaxSizeMB:   int(logMaxSize),
		LogMaxBackups:  int(logMaxBackups),
		OtelEndpoint:   stringEnv(source, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		FetchTimeout:   fetchTimeout,
		ResolveTimeout: resolveTimeout,
		FetchRetries:   fetchRetries,
		RetryBackoff:   retryBackoff,
		ResolveMode:    resolveMode,
		RedisAddr:      stringEnv(source, "REDIS_ADDR", ""),
		HistorySize:    int(historySize),
		HistoryDB:      stringEnv(source, "HISTORY_DB", ""),
		HistoryDSN:     stringEnv(source, "HISTORY_DSN", ""),
		KafkaBrokers:   kafkaBrokers,
		KafkaTopic:     stringEnv(source, "KAFKA_TOPIC", "aavetx-lookups"),
		KafkaGroupID:   stringEnv(source, "KAFKA_GROUP_ID", "aavetx-events"),
		CORSOrigins:    corsOrigins,
		CORSDebug:      corsDebug,
	}, nil
}

func stringEnv(source EnvSource, key, defaultValue string) string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	return strings.TrimSpace(raw)
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

// parseList splits a comma separated value. An empty default yields a nil
// list, which callers treat as "disabled".
func parseList(source EnvSource, key string, defaultValue string) ([]string, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultValue
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s has no entries", key)
	}
	return values, nil
}
