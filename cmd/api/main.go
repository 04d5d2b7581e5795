package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hilook/storefront-api/internal/auth"
	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/disk"
	"github.com/hilook/storefront-api/internal/logger"
	"github.com/hilook/storefront-api/internal/mailer"
	"github.com/hilook/storefront-api/internal/push"
	"github.com/hilook/storefront-api/internal/redisclient"
	"github.com/hilook/storefront-api/internal/s3"

	_ "github.com/lib/pq"
)

var (
	buildTime string
	version   string
)

// config holds every setting of the API process. Values come from command-line
// flags whose defaults are read from the environment (and .env when present).
type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  string
	}
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
		notify   string
	}
	cors struct {
		trustedOrigins []string
	}
	jwt struct {
		secret   string
		ttl      time.Duration
		adminTTL time.Duration
	}
	admin struct {
		username string
		password string
	}
	storage struct {
		backend       string
		uploadsDir    string
		s3Bucket      string
		s3Region      string
		publicBaseURL string
	}
	redis struct {
		addr     string
		password string
	}
	firebase struct {
		credentials string
	}
}

// application holds the dependencies shared by handlers, helpers and middleware.
type application struct {
	config     config
	logger     *zap.Logger
	db         *sqlx.DB
	models     data.Models
	gorm       data.Gorm
	storefront data.Storefront
	files      fileStore
	push       notifier
	mailer     mailSender
	redis      idempotencyStore
	tokens     *auth.Issuer
	wg         sync.WaitGroup
}

func main() {
	_ = godotenv.Load()

	var cfg config

	flag.IntVar(&cfg.port, "port", envInt("PORT", 4000), "API server port")
	flag.StringVar(&cfg.env, "env", envString("ENV", "development"), "Environment (development|staging|production)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.StringVar(&cfg.db.maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")

	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 20, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 40, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", envInt("SMTP_PORT", 587), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", envString("SMTP_SENDER", "Hilook <no-reply@hilook.uz>"), "SMTP sender")
	flag.StringVar(&cfg.smtp.notify, "smtp-notify", os.Getenv("SMTP_NOTIFY"), "Address notified about new orders (empty disables)")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.cors.trustedOrigins = strings.Fields(val)
		return nil
	})

	flag.StringVar(&cfg.jwt.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	flag.DurationVar(&cfg.jwt.ttl, "jwt-ttl", 30*24*time.Hour, "User token lifetime")
	flag.DurationVar(&cfg.jwt.adminTTL, "admin-jwt-ttl", 24*time.Hour, "Admin token lifetime")

	flag.StringVar(&cfg.admin.username, "admin-default-user", envString("ADMIN_DEFAULT_USER", "admin"), "Admin username accepted before an admin account is saved")
	flag.StringVar(&cfg.admin.password, "admin-default-password", os.Getenv("ADMIN_DEFAULT_PASSWORD"), "Admin password accepted before an admin account is saved")

	flag.StringVar(&cfg.storage.backend, "storage", envString("STORAGE", "disk"), "Upload storage (disk|s3)")
	flag.StringVar(&cfg.storage.uploadsDir, "uploads-dir", envString("UPLOADS_DIR", "./uploads"), "Directory for disk storage")
	flag.StringVar(&cfg.storage.s3Bucket, "s3-bucket", os.Getenv("S3_BUCKET"), "S3 bucket for s3 storage")
	flag.StringVar(&cfg.storage.s3Region, "s3-region", envString("S3_REGION", "ap-southeast-1"), "S3 region")
	flag.StringVar(&cfg.storage.publicBaseURL, "public-base-url", os.Getenv("PUBLIC_BASE_URL"), "Base URL prefixed to relative image paths")

	flag.StringVar(&cfg.redis.addr, "redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for order idempotency keys (empty disables)")
	flag.StringVar(&cfg.redis.password, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")

	flag.StringVar(&cfg.firebase.credentials, "firebase-credentials", os.Getenv("FIREBASE_CREDENTIALS"), "Firebase service account file (empty disables push)")

	displayVersion := flag.Bool("version", false, "Display versions and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		fmt.Printf("Build time:\t%s\n", buildTime)
		os.Exit(0)
	}

	log, err := logger.New(cfg.env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.jwt.secret == "" {
		log.Fatal("jwt secret is required", zap.String("flag", "-jwt-secret"))
	}

	decimal.MarshalJSONWithoutQuotes = true

	db, gormDB, err := openDB(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	log.Info("database connection pool established")

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() interface{} {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("database", expvar.Func(func() interface{} {
		return db.Stats()
	}))
	expvar.Publish("timestamp", expvar.Func(func() interface{} {
		return time.Now().Unix()
	}))

	files, err := openFileStore(cfg)
	if err != nil {
		log.Fatal("open file storage", zap.Error(err), zap.String("storage", cfg.storage.backend))
	}

	pusher, err := push.New(context.Background(), cfg.firebase.credentials)
	if err != nil {
		log.Fatal("init push notifications", zap.Error(err))
	}
	if !pusher.Enabled() {
		log.Warn("push notifications disabled")
	}

	app := &application{
		config:     cfg,
		logger:     log,
		db:         db,
		models:     data.NewModels(db),
		gorm:       data.GormModels(gormDB),
		storefront: data.Storefront{BaseURL: cfg.storage.publicBaseURL},
		files:      files,
		push:       pusher,
		mailer:     mailer.New(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		tokens:     auth.NewIssuer(cfg.jwt.secret, "hilook"),
	}

	if cfg.redis.addr != "" {
		rdb, err := redisclient.NewClient(cfg.redis.addr, cfg.redis.password, 0)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()

		app.redis = rdb
	}

	err = app.serve()
	if err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// openDB opens one pool shared by the sqlx models and gorm.
func openDB(cfg config) (*sqlx.DB, *gorm.DB, error) {
	db, err := sqlx.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConns)
	db.SetMaxIdleConns(cfg.db.maxIdleConns)

	duration, err := time.ParseDuration(cfg.db.maxIdleTime)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxIdleTime(duration)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	return db, gormDB, nil
}

func openFileStore(cfg config) (fileStore, error) {
	switch cfg.storage.backend {
	case "s3":
		if cfg.storage.s3Bucket == "" {
			return nil, fmt.Errorf("-s3-bucket is required for s3 storage")
		}
		return s3.New(cfg.storage.s3Bucket, cfg.storage.s3Region)
	case "disk":
		return disk.New(cfg.storage.uploadsDir)
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.storage.backend)
	}
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
