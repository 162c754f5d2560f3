package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		AllowedOrigins            []string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Backend       string // local | gcs
		Bucket        string
		BaseURL       string // public URL prefix (CDN or /media)
		LocalDir      string
		MaxUploadSize int64 // bytes
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		FeedTTL  time.Duration
	}

	FunctionsConfig struct {
		BaseURL string
		Key     string
		Timeout time.Duration
	}

	PlansConfig struct {
		Currency     string
		MonthlyPrice int64 // cents
		YearlyPrice  int64 // cents
	}

	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		AppName                   string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		WorkDir                   string
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string
		SendgridSandbox           bool   // sendgrid validates mails without delivering them
		ReplyToEmail              string // optional Reply-To of outgoing emails
		LogFile                   string
		PasswordResetTimeoutDelta time.Duration

		Server    ServerConfig
		Database  DatabaseConfig
		Storage   StorageConfig
		Redis     RedisConfig
		Functions FunctionsConfig
		Plans     PlansConfig

		defaultFromEmail string
		v                *viper.Viper
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// DefaultFromEmail returns the sender used for all outgoing emails.
func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Elimu")
	v.SetDefault("secretKey", "k2!v_9m@z8d-4x+q7w%c3r^e(t6y)u1i#o0p&l5j$h*g=f")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("sendgridSandbox", false)
	v.SetDefault("replyToEmail", "")
	v.SetDefault("logFile", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "elimu")
	v.SetDefault("database.user", "elimu")
	v.SetDefault("database.password", "elimu")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.baseURL", "/media")
	v.SetDefault("storage.localDir", "media")
	v.SetDefault("storage.maxUploadSize", int64(5<<20))

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.feedTTL", 5*time.Minute)

	v.SetDefault("functions.baseURL", "")
	v.SetDefault("functions.key", "")
	v.SetDefault("functions.timeout", 30*time.Second)

	v.SetDefault("plans.currency", "USD")
	v.SetDefault("plans.monthlyPrice", int64(999))
	v.SetDefault("plans.yearlyPrice", int64(9999))
}

// NewConfig loads the configuration from (in order of precedence):
// ENV-prefixed environment variables, config/.env.<env>, config/config.yaml and defaults.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v := viper.New()
	setDefaults(v)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgPath := filepath.Join(workDir, "config", "config.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("config.ReadInConfig(%s): %v", cfgPath, err)
		}
	}

	conf := fromViper(v)
	conf.Env = env
	conf.WorkDir = workDir
	return conf
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		SendgridSandbox:           v.GetBool("sendgridSandbox"),
		ReplyToEmail:              v.GetString("replyToEmail"),
		LogFile:                   v.GetString("logFile"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			AllowedOrigins:            v.GetStringSlice("server.allowedOrigins"),
			ReadTimeout:               v.GetDuration("server.readTimeout"),
			WriteTimeout:              v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Storage: StorageConfig{
			Backend:       v.GetString("storage.backend"),
			Bucket:        v.GetString("storage.bucket"),
			BaseURL:       strings.TrimRight(v.GetString("storage.baseURL"), "/"),
			LocalDir:      v.GetString("storage.localDir"),
			MaxUploadSize: v.GetInt64("storage.maxUploadSize"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			FeedTTL:  v.GetDuration("redis.feedTTL"),
		},
		Functions: FunctionsConfig{
			BaseURL: strings.TrimRight(v.GetString("functions.baseURL"), "/"),
			Key:     v.GetString("functions.key"),
			Timeout: v.GetDuration("functions.timeout"),
		},
		Plans: PlansConfig{
			Currency:     v.GetString("plans.currency"),
			MonthlyPrice: v.GetInt64("plans.monthlyPrice"),
			YearlyPrice:  v.GetInt64("plans.yearlyPrice"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
		v:                v,
	}
}

// NewTestConfig returns the defaults with test mode on; no files or env vars are read.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("debug", false)
	v.Set("testMode", true)
	conf := fromViper(v)
	conf.Env = "TEST"
	conf.WorkDir = os.TempDir()
	return conf
}

// Watch logs changes made to config/config.yaml while the app is running.
// Values are only read at start up: a restart is required to apply them.
func (conf *Config) Watch(logger Logger) {
	if conf.v == nil || conf.v.ConfigFileUsed() == "" {
		return
	}
	conf.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Warn("config file changed, restart to apply: " + e.Name)
	})
	conf.v.WatchConfig()
}
