package config

import (
	"flag"
	"os"
	"time"

	"github.com/swaphubteam/SwapIt/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-m string   store mode: "auto" or "memory"
//	-e string   environment: "production" or "development"
//	-t int      session lifetime, minutes
//	-n int      failed logins before lockout
//	-l int      lockout duration, minutes
//	-r string   Redis address for the session cache
//
// Only these flags are read from os.Args; everything else is left for other
// parsers. Durations are whole minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-e", "-t", "-n", "-l", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StoreMode, "m", config.StoreMode, "store mode (auto|memory)")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (production|development)")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.IntVar(&config.LockoutThreshold, "n", config.LockoutThreshold, "failed logins before lockout")
	lockoutDuration := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout duration (in minutes)")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for sessions")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
}
