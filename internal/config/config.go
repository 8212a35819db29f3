package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/hazard"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all engine and service settings, populated from environment variables.
type Config struct {
	// GraphFile is the YAML graph definition; empty selects the embedded dataset.
	GraphFile  string
	GraphWatch bool

	HazardRadiusMeters float64
	HazardPenaltyScale float64
	RequestTimeout     time.Duration
	ResultCacheSize    int

	KafkaBrokers       []string
	KafkaRequestTopic  string
	KafkaResultTopic   string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	requestTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("REQUEST_TIMEOUT", "5s"))
	if err != nil || requestTimeout <= 0 {
		return nil, errors.New("invalid REQUEST_TIMEOUT: must be a positive duration")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("RESULT_CACHE_SIZE", "1000"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid RESULT_CACHE_SIZE: must be a non-negative integer")
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("HAZARD_RADIUS_M", "500"), 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid HAZARD_RADIUS_M: must be a positive number of metres")
	}

	scale, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("HAZARD_PENALTY_SCALE", "1.0"), 64)
	if err != nil || scale < 0 {
		return nil, errors.New("invalid HAZARD_PENALTY_SCALE: must be a non-negative number")
	}

	graphFile := os.Getenv("GRAPH_FILE")
	graphWatch := graphFile != ""
	if v := os.Getenv("GRAPH_WATCH"); v != "" {
		graphWatch, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid GRAPH_WATCH: must be true or false")
		}
	}

	cfg := &Config{
		GraphFile:          graphFile,
		GraphWatch:         graphWatch,
		HazardRadiusMeters: radius,
		HazardPenaltyScale: scale,
		RequestTimeout:     requestTimeout,
		ResultCacheSize:    cacheSize,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:  sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "route-requests"),
		KafkaResultTopic:   sharedcfg.EnvOrDefault("KAFKA_RESULT_TOPIC", "route-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hazard-route-engine"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
	}

	if cfg.GraphWatch && cfg.GraphFile == "" {
		return nil, errors.New("GRAPH_WATCH is true but GRAPH_FILE is not set")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaRequestTopic == "" {
		return nil, errors.New("KAFKA_REQUEST_TOPIC is required")
	}
	if cfg.KafkaResultTopic == "" {
		return nil, errors.New("KAFKA_RESULT_TOPIC is required")
	}

	return cfg, nil
}

// HazardModel returns the cost-model parameters.
func (c *Config) HazardModel() hazard.Model {
	return hazard.Model{RadiusMeters: c.HazardRadiusMeters, Scale: c.HazardPenaltyScale}
}
