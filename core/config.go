package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		AMQP     AMQPConfig
		Registry RegistryConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		SecretKey       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
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
		Tables        TableNames
	}

	// TableNames maps record kinds to the tables holding them.
	TableNames struct {
		People   string
		Links    string
		Schools  string
		Students string
	}

	RedisConfig struct {
		URL        string
		SessionTTL time.Duration
	}

	AMQPConfig struct {
		URL      string
		Exchange string
	}

	RegistryConfig struct {
		SearchLimit        int
		WeeklyHoursCeiling float64
		SimilarNameRatio   float64
	}
)

// String describes the configuration without its secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"env=%s build=%s debug=%t address=%s db=%s@%s/%s redis=%t amqp=%t",
		c.Env, c.Build, c.Debug, c.Server.Address,
		c.Database.Engine, c.Database.Address(), c.Database.Name,
		c.Redis.URL != "", c.AMQP.URL != "",
	)
}

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and
// environment variables prefixed with the upper-cased env (eg. PROD_DATABASE_HOST).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduTrack")
	v.SetDefault("build", "develop")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "edutrack")
	v.SetDefault("database.user", "edutrack")
	v.SetDefault("database.password", "edutrack")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.tables.people", "person")
	v.SetDefault("database.tables.links", "relationship_link")
	v.SetDefault("database.tables.schools", "school")
	v.SetDefault("database.tables.students", "student")
	v.SetDefault("redis.sessionTTL", 2*time.Hour)
	v.SetDefault("amqp.exchange", "edutrack.events")
	v.SetDefault("registry.searchLimit", 10)
	v.SetDefault("registry.weeklyHoursCeiling", 40.0)
	v.SetDefault("registry.similarNameRatio", 0.8)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: *fromEmail,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			SecretKey:       v.GetString("server.secretKey"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
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
			Tables: TableNames{
				People:   v.GetString("database.tables.people"),
				Links:    v.GetString("database.tables.links"),
				Schools:  v.GetString("database.tables.schools"),
				Students: v.GetString("database.tables.students"),
			},
		},
		Redis: RedisConfig{
			URL:        v.GetString("redis.url"),
			SessionTTL: v.GetDuration("redis.sessionTTL"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("amqp.url"),
			Exchange: v.GetString("amqp.exchange"),
		},
		Registry: RegistryConfig{
			SearchLimit:        v.GetInt("registry.searchLimit"),
			WeeklyHoursCeiling: v.GetFloat64("registry.weeklyHoursCeiling"),
			SimilarNameRatio:   v.GetFloat64("registry.similarNameRatio"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no external services, debug off.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "EduTrack",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "EduTrack", Address: "noreply@localhost"},
		Server: ServerConfig{
			Host:            "localhost",
			SecretKey:       "secret",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Database: DatabaseConfig{
			Tables: TableNames{People: "person", Links: "relationship_link", Schools: "school", Students: "student"},
		},
		Redis: RedisConfig{SessionTTL: time.Hour},
		Registry: RegistryConfig{
			SearchLimit:        10,
			WeeklyHoursCeiling: 40,
			SimilarNameRatio:   0.8,
		},
	}
}
