/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package config loads the INI-style configuration file shared by all
// three binaries and layers environment-variable overrides on top, the
// same two-step load every stage in this repo performs at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gravwell/gcfg"
)

// Global is the top-level config file shape. Every stage loads the whole
// file but only reads the sections relevant to it; this mirrors one
// .conf file driving several gravwell ingesters off shared sections.
type Global struct {
	Global struct {
		LogLevel   string
		MetricsBind string
	}
	Listener struct {
		UDPBind        string
		TCPBind        string
		TLSBind        string
		TLSCert        string
		TLSKey         string
		TLSEnabled     bool
		MaxMessageSize int
	}
	Bus struct {
		Brokers         []string
		TopicRaw        string
		TopicProcessed  string
		TopicAlerts     string
		ConsumerGroup   string
	}
	Store struct {
		URL         string
		Username    string
		Password    string
		IndexPrefix string
		Rotation    string // daily|weekly|monthly
		BulkSize    int
		BulkTimeoutSeconds int
		MaxRetries  int
	}
	Dedup struct {
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTLSeconds    int
	}
	Delivery struct {
		SMTPHost     string
		SMTPPort     int
		SMTPUser     string
		SMTPPassword string
		SMTPFrom     string
		SMTPTo       []string
		WebhookURL   string
	}
	Workers struct {
		Count int
	}
}

// Default returns config populated with the defaults spec'd for every
// stage so a config file only needs to override what differs.
func Default() *Global {
	g := &Global{}
	g.Global.LogLevel = "INFO"
	g.Global.MetricsBind = ":9090"
	g.Listener.UDPBind = ":5514"
	g.Listener.TCPBind = ":5515"
	g.Listener.TLSBind = ":5516"
	g.Listener.MaxMessageSize = 8192
	g.Bus.Brokers = []string{"localhost:9092"}
	g.Bus.TopicRaw = "raw-logs"
	g.Bus.TopicProcessed = "processed-logs"
	g.Bus.TopicAlerts = "alerts"
	g.Store.URL = "http://localhost:9200"
	g.Store.IndexPrefix = "cybersentinel-logs"
	g.Store.Rotation = "daily"
	g.Store.BulkSize = 500
	g.Store.BulkTimeoutSeconds = 30
	g.Store.MaxRetries = 3
	g.Dedup.RedisAddr = "localhost:6379"
	g.Dedup.TTLSeconds = 3600
	g.Workers.Count = 4
	return g
}

// Load reads path via gcfg into a fresh Default() and applies the
// CYBERSENTINEL_* environment overlay on top.
func Load(path string) (*Global, error) {
	g := Default()
	if path != "" {
		if err := gcfg.ReadFileInto(g, path); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}
	applyEnvOverlay(g)
	return g, nil
}

const envPrefix = "CYBERSENTINEL_"

// loadEnv mirrors the teacher's env.go: check NAME directly, then NAME_FILE
// for a secret loaded from a file on disk, then leave the default in place.
func loadEnv(name string) (string, bool) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		return v, true
	}
	if fp, ok := os.LookupEnv(envPrefix + name + "_FILE"); ok {
		b, err := os.ReadFile(fp)
		if err == nil {
			return strings.TrimSpace(string(b)), true
		}
	}
	return "", false
}

func loadEnvInt(name string, dst *int) {
	if v, ok := loadEnv(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func loadEnvBool(name string, dst *bool) {
	if v, ok := loadEnv(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func loadEnvString(name string, dst *string) {
	if v, ok := loadEnv(name); ok {
		*dst = v
	}
}

func loadEnvStringSlice(name string, dst *[]string) {
	if v, ok := loadEnv(name); ok {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		*dst = parts
	}
}

// applyEnvOverlay overrides one leaf field per call, same granularity the
// teacher's LoadEnvVar is invoked at for every config value that can carry
// a secret or a deployment-specific override.
func applyEnvOverlay(g *Global) {
	loadEnvString("LOG_LEVEL", &g.Global.LogLevel)
	loadEnvString("METRICS_BIND", &g.Global.MetricsBind)

	loadEnvString("UDP_BIND", &g.Listener.UDPBind)
	loadEnvString("TCP_BIND", &g.Listener.TCPBind)
	loadEnvString("TLS_BIND", &g.Listener.TLSBind)
	loadEnvString("TLS_CERT", &g.Listener.TLSCert)
	loadEnvString("TLS_KEY", &g.Listener.TLSKey)
	loadEnvBool("TLS_ENABLED", &g.Listener.TLSEnabled)
	loadEnvInt("MAX_MESSAGE_SIZE", &g.Listener.MaxMessageSize)

	loadEnvStringSlice("BUS_BROKERS", &g.Bus.Brokers)
	loadEnvString("BUS_TOPIC_RAW", &g.Bus.TopicRaw)
	loadEnvString("BUS_TOPIC_PROCESSED", &g.Bus.TopicProcessed)
	loadEnvString("BUS_TOPIC_ALERTS", &g.Bus.TopicAlerts)
	loadEnvString("BUS_CONSUMER_GROUP", &g.Bus.ConsumerGroup)

	loadEnvString("STORE_URL", &g.Store.URL)
	loadEnvString("STORE_USERNAME", &g.Store.Username)
	loadEnvString("STORE_PASSWORD", &g.Store.Password)
	loadEnvString("STORE_INDEX_PREFIX", &g.Store.IndexPrefix)
	loadEnvString("STORE_ROTATION", &g.Store.Rotation)
	loadEnvInt("STORE_BULK_SIZE", &g.Store.BulkSize)
	loadEnvInt("STORE_BULK_TIMEOUT_SECONDS", &g.Store.BulkTimeoutSeconds)
	loadEnvInt("STORE_MAX_RETRIES", &g.Store.MaxRetries)

	loadEnvString("DEDUP_REDIS_ADDR", &g.Dedup.RedisAddr)
	loadEnvString("DEDUP_REDIS_PASSWORD", &g.Dedup.RedisPassword)
	loadEnvInt("DEDUP_REDIS_DB", &g.Dedup.RedisDB)
	loadEnvInt("DEDUP_TTL_SECONDS", &g.Dedup.TTLSeconds)

	loadEnvString("SMTP_HOST", &g.Delivery.SMTPHost)
	loadEnvInt("SMTP_PORT", &g.Delivery.SMTPPort)
	loadEnvString("SMTP_USER", &g.Delivery.SMTPUser)
	loadEnvString("SMTP_PASSWORD", &g.Delivery.SMTPPassword)
	loadEnvString("SMTP_FROM", &g.Delivery.SMTPFrom)
	loadEnvStringSlice("SMTP_TO", &g.Delivery.SMTPTo)
	loadEnvString("WEBHOOK_URL", &g.Delivery.WebhookURL)

	loadEnvInt("WORKERS_COUNT", &g.Workers.Count)
}
