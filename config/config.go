// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validLimiterStores  = []string{"memory", "sqlite", "postgres"}
	validateOnlyAndExit = pflag.Bool("validate-config", false, "Validates the config file and exits")
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")

	v.BindEnv("s3.endpoint", "s3_endpoint")
	v.BindEnv("s3.region", "s3_region")
	v.BindEnv("s3.access_key_id", "s3_access_key_id")
	v.BindEnv("s3.secret_access_key", "s3_secret_access_key")
	v.BindEnv("s3.bucket", "s3_bucket")
	v.BindEnv("s3.public_url", "s3_public_url")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("guestbook.filename", "guestbook_filename")
	v.BindEnv("guestbook.honeypot_field", "guestbook_honeypot_field")
	v.BindEnv("guestbook.cooldown", "guestbook_cooldown")

	v.BindEnv("ratelimit.store", "ratelimit_store")
	v.BindEnv("ratelimit.dsn", "ratelimit_dsn")

	v.BindEnv("cache.list_media_ttl", "cache_list_media_ttl")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)

	v.SetDefault("s3.region", "auto")

	v.SetDefault("upload.max_size", 500)

	v.SetDefault("guestbook.filename", "guestbook.xlsx")
	v.SetDefault("guestbook.honeypot_field", "website")
	v.SetDefault("guestbook.cooldown", 5*time.Second)

	v.SetDefault("ratelimit.store", "memory")

	v.SetDefault("cache.list_media_ttl", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("s3.access_key_id") == "" {
		return errors.New("access key id can't be empty")
	}

	if v.GetString("s3.secret_access_key") == "" {
		return errors.New("secret access key can't be empty")
	}

	if v.GetString("s3.bucket") == "" {
		return errors.New("bucket can't be empty")
	}

	if v.GetString("s3.public_url") == "" {
		return errors.New("public url can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	if v.GetString("guestbook.filename") == "" {
		return errors.New("guestbook filename can't be empty")
	}

	if v.GetDuration("guestbook.cooldown") <= 0 {
		return errors.New("guestbook cooldown must be bigger than 0")
	}

	store := v.GetString("ratelimit.store")
	if !slices.Contains(validLimiterStores, store) {
		return errors.New("invalid rate limit store provided")
	}

	if store == "postgres" && v.GetString("ratelimit.dsn") == "" {
		return errors.New("ratelimit.dsn is required for the postgres store")
	}

	// Config takes the limit in MiB, everything else works with bytes
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)

	if *validateOnlyAndExit {
		fmt.Println("Config OK")
		os.Exit(0)
	}

	return nil
}
