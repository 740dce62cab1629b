package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	App       App       `mapstructure:"app"`
	HTTP      HTTP      `mapstructure:"http"`
	DB        DB        `mapstructure:"db"`
	Redis     Redis     `mapstructure:"redis"`
	Session   Session   `mapstructure:"session"`
	Upload    Upload    `mapstructure:"upload"`
	Storage   Storage   `mapstructure:"storage"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Order     Order     `mapstructure:"order"`
	Log       Log       `mapstructure:"log"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Web       Web       `mapstructure:"web"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // dev / prod
}

type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxConcurrency  int64         `mapstructure:"max_concurrency"`
	BodyLimit       string        `mapstructure:"body_limit"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

type DB struct {
	Driver          string        `mapstructure:"driver"` // postgres / mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Addrが空ならキャッシュを使わない
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Session struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type Upload struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type Storage struct {
	Driver   string `mapstructure:"driver"` // local / s3
	LocalDir string `mapstructure:"local_dir"`
	S3Region string `mapstructure:"s3_region"`
	S3Bucket string `mapstructure:"s3_bucket"`
}

// Brokersが空ならイベントを送らない
type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Order struct {
	RestockOnCancel bool `mapstructure:"restock_on_cancel"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"` // 空ならstdoutのみ
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// 認証系エンドポイントのIPごとの制限
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Web struct {
	Dir string `mapstructure:"dir"`
}

func (c Config) IsProd() bool {
	return c.App.Env == "prod"
}

// AutomaticEnvはUnmarshal時に既知のキーしか見ないので、全キーに既定値を置く
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketplace")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.request_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_concurrency", 256)
	v.SetDefault("http.body_limit", "6M")
	v.SetDefault("http.allow_origins", []string{})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=marketplace sslmode=disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*time.Second)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.issuer", "marketplace")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.secure", false)

	v.SetDefault("upload.max_bytes", 5<<20)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.s3_bucket", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "order.status_changed")

	v.SetDefault("order.restock_on_cancel", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.compress", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("web.dir", "./web/dist")
}

// Loadは .env → 設定ファイル(任意) → 環境変数(APP_*) の順で上書きする
func Load(path string) (Config, error) {
	//.envは無くてもよい
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	//カンマ区切りの環境変数
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.HTTP.AllowOrigins = splitList(cfg.HTTP.AllowOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("session.secret is required (APP_SESSION_SECRET)")
	}
	if c.IsProd() && len(c.Session.Secret) < 32 {
		return errors.New("session.secret must be at least 32 bytes in prod")
	}
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("db.driver must be postgres or mysql: %q", c.DB.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return errors.New("storage.s3_bucket and storage.s3_region are required for s3")
		}
	default:
		return fmt.Errorf("storage.driver must be local or s3: %q", c.Storage.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be > 0")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be > 0")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
