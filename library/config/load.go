// Package config loads settings into the shared go-config instance.
package config

import (
	"os"
	"path/filepath"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/joho/godotenv"

	"github.com/Laisky/laisky-portfolio/library/log"
)

// envOverrides maps environment variables onto settings keys.
// They win over the yaml file so secrets can stay out of it.
var envOverrides = map[string]string{
	"PORTFOLIO_SECRET":             "settings.secret",
	"PORTFOLIO_ADMIN_PASSWORD":     "settings.admin.password",
	"PORTFOLIO_DB_TYPE":            "settings.db.type",
	"PORTFOLIO_CONTACT_ENDPOINT":   "settings.contact.endpoint",
	"PORTFOLIO_TELEGRAM_BOT_TOKEN": "settings.contact.telegram.token",
	"PORTFOLIO_S3_SECRET_KEY":      "settings.cv.s3.secret_key",
}

// LoadFromFile loads yaml settings from cfgPath, then applies a `.env`
// file next to it (if any) and the process environment.
func LoadFromFile(cfgPath string) {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	LoadEnv(filepath.Join(filepath.Dir(cfgPath), ".env"))
	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}

// LoadEnv reads envFile into the environment when it exists and copies
// known variables into settings. Missing files are ignored.
func LoadEnv(envFile string) {
	if _, err := os.Stat(envFile); err == nil {
		if err = godotenv.Load(envFile); err != nil {
			log.Logger.Warn("load env file", zap.String("file", envFile), zap.Error(err))
		}
	}

	for env, key := range envOverrides {
		if v := os.Getenv(env); v != "" {
			gconfig.Shared.Set(key, v)
		}
	}
}
