package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	// RequestTimeout bounds every request context, and with it every
	// outbound record-store and registry call made on its behalf.
	RequestTimeout string `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Timeout  string `yaml:"timeout"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL        string `yaml:"ttl"`
	Length     int    `yaml:"length"`
	Cooldown   string `yaml:"cooldown"`
	SendLimit  int    `yaml:"send_limit"`
	SendWindow string `yaml:"send_window"`
}

type RevocationConfig struct {
	// FailClosed flips the fail-open default of the revocation check.
	FailClosed bool `yaml:"fail_closed"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	OTP        OTPConfig        `yaml:"otp"`
	Revocation RevocationConfig `yaml:"revocation"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Casbin     CasbinConfig     `yaml:"casbin"`
}

type Config struct {
	Port                 string
	GinMode              string
	RequestTimeout       time.Duration
	DSN                  string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisTimeout         time.Duration
	JWTSecret            string
	JWTIssuer            string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	OTPTTL               time.Duration
	OTPLength            int
	OTPCooldown          time.Duration
	OTPSendLimit         int
	OTPSendWindow        time.Duration
	RevocationFailClosed bool
	TwilioSID            string
	TwilioToken          string
	TwilioFrom           string
	CasbinModelPath      string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the config file (path overridable via SHOPCORE_CONFIG) and
// resolves secrets from the environment when set there instead.
func Load() (*Config, error) {
	path := env("SHOPCORE_CONFIG", "config/config.yml")

	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	requestTimeout, err := parseDuration(configFile.App.RequestTimeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout: %w", err)
	}

	redisTimeout, err := parseDuration(configFile.Redis.Timeout, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid redis timeout: %w", err)
	}

	accTTL, err := parseDuration(configFile.JWT.AccessTTL, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	refTTL, err := parseDuration(configFile.JWT.RefreshTTL, 720*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT refresh TTL: %w", err)
	}

	otpTTL, err := parseDuration(configFile.OTP.TTL, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	cooldown, err := parseDuration(configFile.OTP.Cooldown, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP cooldown: %w", err)
	}

	sendWindow, err := parseDuration(configFile.OTP.SendWindow, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP send window: %w", err)
	}

	otpLength := configFile.OTP.Length
	if otpLength == 0 {
		otpLength = 6
	}

	sendLimit := configFile.OTP.SendLimit
	if sendLimit == 0 {
		sendLimit = 5
	}

	return &Config{
		Port:                 fmt.Sprintf("%d", configFile.App.Port),
		GinMode:              configFile.App.GinMode,
		RequestTimeout:       requestTimeout,
		DSN:                  env("SHOPCORE_DSN", configFile.Database.DSN),
		RedisAddr:            configFile.Redis.Addr,
		RedisPassword:        env("SHOPCORE_REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:              configFile.Redis.DB,
		RedisTimeout:         redisTimeout,
		JWTSecret:            env("SHOPCORE_JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:            configFile.JWT.Issuer,
		AccessTTL:            accTTL,
		RefreshTTL:           refTTL,
		OTPTTL:               otpTTL,
		OTPLength:            otpLength,
		OTPCooldown:          cooldown,
		OTPSendLimit:         sendLimit,
		OTPSendWindow:        sendWindow,
		RevocationFailClosed: configFile.Revocation.FailClosed || env("SHOPCORE_REVOCATION_FAIL_CLOSED", "false") == "true",
		TwilioSID:            env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:          env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:           configFile.Twilio.FromNumber,
		CasbinModelPath:      configFile.Casbin.ModelPath,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
