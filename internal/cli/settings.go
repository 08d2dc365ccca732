package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/reqlgate/internal/config"
	"github.com/roach88/reqlgate/internal/executor"
)

// EnvPrefix prefixes every environment setting, e.g. REQLGATE_HOST.
const EnvPrefix = "REQLGATE"

// settingKeys are the names shared by flags, environment variables and
// task file fields.
var settingKeys = []string{"host", "port", "user", "password", "query", "timeout", "history"}

// Settings is the resolved configuration of one query call.
type Settings struct {
	Params  executor.ConnectionParams
	Query   string
	Timeout time.Duration
	History string
}

// loadEnvFile loads a dotenv file if it exists. Variables already set in
// the environment are left alone.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// resolveSettings merges, from lowest to highest priority: defaults, the
// task file, the environment and command-line flags.
func resolveSettings(cmd *cobra.Command, envFile, taskPath string) (*Settings, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// REQLGATE_PASSWORD= is an explicit empty password, not a missing one.
	v.AllowEmptyEnv(true)
	v.SetDefault("port", executor.DefaultPort)
	v.SetDefault("timeout", executor.DefaultTimeout.String())

	if taskPath != "" {
		task, err := config.Load(taskPath)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(task.Settings()); err != nil {
			return nil, fmt.Errorf("merging task file: %w", err)
		}
	}

	for _, key := range settingKeys {
		if flag := cmd.Flags().Lookup(key); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", key, err)
			}
		}
	}

	var missing []string
	for _, key := range []string{"host", "user", "password", "query"} {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required settings: %s (use --%s or %s_%s)",
			strings.Join(missing, ", "), missing[0], EnvPrefix, strings.ToUpper(missing[0]))
	}

	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	return &Settings{
		Params: executor.ConnectionParams{
			Host:     v.GetString("host"),
			Port:     port,
			User:     v.GetString("user"),
			Password: executor.Secret(v.GetString("password")),
		},
		Query:   v.GetString("query"),
		Timeout: timeout,
		History: v.GetString("history"),
	}, nil
}
