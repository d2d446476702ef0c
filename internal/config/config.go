/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTTTL    time.Duration

	BcryptCost int

	CORSOrigins []string

	SnapshotCron    string
	SnapshotEnabled bool

	HTTPTimeout     time.Duration
	MongoTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" { return def }
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" { return def }
	i, err := strconv.Atoi(v)
	if err != nil { return def }
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" { return def }
	d, err := time.ParseDuration(v)
	if err != nil { return def }
	return d
}

func boolenv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" { return def }
	b, err := strconv.ParseBool(v)
	if err != nil { return def }
	return b
}

func parseStrings(csv string) []string {
	if csv == "" { return nil }
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" { continue }
		out = append(out, p)
	}
	return out
}

func Load() Config {
	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "issuetracker"),

		JWTSecret: getenv("JWT_SECRET", "change-me"),
		JWTTTL:    dur("JWT_TTL", 30*24*time.Hour),

		BcryptCost: atoi("BCRYPT_COST", 10),

		CORSOrigins: parseStrings(getenv("CORS_ORIGINS", "")),

		SnapshotCron:    getenv("SNAPSHOT_CRON", "0 * * * *"),
		SnapshotEnabled: boolenv("SNAPSHOT_ENABLED", true),

		HTTPTimeout:     dur("HTTP_TIMEOUT", 15*time.Second),
		MongoTimeout:    dur("MONGO_TIMEOUT", 10*time.Second),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	// set global timezone if available
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}

	return cfg
}
