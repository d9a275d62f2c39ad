package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	userDirName     = ".tada"
	userConfigName  = "config.toml"
	projectConfig   = "tada.toml"
	projectConfigDt = ".tada.toml"
)

// Load builds the configuration:
// 1. Defaults
// 2. User config file (~/.tada/config.toml)
// 3. Project config file (tada.toml or .tada.toml in the working directory),
//    or the file named by -config instead of both
// 4. Environment variables (TADA_*)
// 5. CLI flags
//
// Flags are registered on fs and parsed from args; fs.Args() holds the rest.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	flags := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if *flags.file != "" {
		cfg.File = *flags.file
		if err := loadConfigFile(cfg, cfg.File); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", cfg.File, err)
		}
	} else {
		for _, p := range []string{findUserConfigFile(), findProjectConfigFile()} {
			if p == "" {
				continue
			}
			if err := loadConfigFile(cfg, p); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", p, err)
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	flags.apply(fs, cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserDir is ~/.tada, home of the user config and the credentials file.
func UserDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, userDirName), nil
}

func findUserConfigFile() string {
	dir, err := UserDir()
	if err != nil {
		return ""
	}
	return existing(filepath.Join(dir, userConfigName))
}

func findProjectConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{projectConfig, projectConfigDt} {
		if p := existing(filepath.Join(wd, name)); p != "" {
			return p
		}
	}
	return ""
}

func existing(p string) string {
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p
	}
	return ""
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TADA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TADA_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("TADA_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TADA_VALIDATE: %w", err)
		}
		cfg.ValidateResponses = b
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_DATE_FORMAT"); v != "" {
		cfg.DateFormat = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}
	return nil
}

type flagValues struct {
	file      *string
	apiURL    *string
	timeout   *time.Duration
	validate  *bool
	logLevel  *string
	logFormat *string
	logFile   *string
	theme     *string
	date      *string
	group     *bool
	noColor   *bool
}

func registerFlags(fs *flag.FlagSet) flagValues {
	return flagValues{
		file:      fs.String("config", "", "path to a TOML config file"),
		apiURL:    fs.String("api", "", "backend base URL"),
		timeout:   fs.Duration("timeout", 0, "request timeout (0 = none)"),
		validate:  fs.Bool("validate", false, "check responses against the todo schema"),
		logLevel:  fs.String("log-level", "", "debug, info, warn, error"),
		logFormat: fs.String("log-format", "", "text, json, logfmt"),
		logFile:   fs.String("log-file", "", "write logs to this file"),
		theme:     fs.String("theme", "", "classic, neon, mono"),
		date:      fs.String("date-format", "", "Go layout for due-date labels"),
		group:     fs.Bool("group", false, "group output by pending/done"),
		noColor:   fs.Bool("no-color", false, "disable colors"),
	}
}

// apply copies the flags that were actually set.
func (f flagValues) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "api":
			cfg.APIURL = *f.apiURL
		case "timeout":
			cfg.Timeout = *f.timeout
		case "validate":
			cfg.ValidateResponses = *f.validate
		case "log-level":
			cfg.LogLevel = strings.ToLower(*f.logLevel)
		case "log-format":
			cfg.LogFormat = strings.ToLower(*f.logFormat)
		case "log-file":
			cfg.LogFile = *f.logFile
		case "theme":
			cfg.Theme = strings.ToLower(*f.theme)
		case "date-format":
			cfg.DateFormat = *f.date
		case "group":
			cfg.Group = *f.group
		case "no-color":
			cfg.NoColor = *f.noColor
		}
	})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", tomlName(fe.StructField()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func tomlName(field string) string {
	switch field {
	case "APIURL":
		return "api_url"
	case "Timeout":
		return "timeout"
	case "LogLevel":
		return "log_level"
	case "LogFormat":
		return "log_format"
	case "Theme":
		return "theme"
	case "DateFormat":
		return "date_format"
	}
	return field
}
