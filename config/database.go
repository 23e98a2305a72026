package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// db is published once it is configured with every plugin.
var db atomic.Pointer[gorm.DB]

func GetDB() *gorm.DB {
	return db.Load()
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// DatabaseDriver returns DB_DRIVER, defaulting to mysql.
func DatabaseDriver() string {
	d := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if d == "" {
		return DriverMySQL
	}
	return d
}

// Dialector builds the gorm dialector for DB_DRIVER from the DB_* env vars.
func Dialector() (gorm.Dialector, error) {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	switch DatabaseDriver() {
	case DriverMySQL:
		network := "tcp"
		address := fmt.Sprintf("%s:%s", dbHost, dbPort)
		// Cloud SQL: DB_HOST=/cloudsql/<CONNECTION_NAME> goes through the unix socket.
		if strings.HasPrefix(dbHost, "/cloudsql/") {
			network = "unix"
			address = dbHost
		}
		dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true&loc=UTC",
			dbUser,
			dbPassword,
			network,
			address,
			dbName,
		)
		return mysql.Open(dsn), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dbHost, dbUser, dbPassword, dbName, dbPort, stringFromEnv("DB_SSLMODE", "disable"))
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", DatabaseDriver())
	}
}

// openDatabase opens and configures one pool. Nothing is published.
func openDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, initConfig())
	if err != nil {
		return nil, err
	}
	// Env overrides (optional):
	// - DB_MAX_OPEN_CONNS (default 50)
	// - DB_MAX_IDLE_CONNS (default 25)
	// - DB_CONN_MAX_LIFETIME_SECONDS (default 300)
	// - DB_CONN_MAX_IDLE_TIME_SECONDS (default 60)
	if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
		maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 50)
		maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 25)
		connMaxLife := time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second
		connMaxIdle := time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second

		if maxOpen > 0 {
			sqlDB.SetMaxOpenConns(maxOpen)
		}
		if maxIdle >= 0 {
			sqlDB.SetMaxIdleConns(maxIdle)
		}
		if connMaxLife > 0 {
			sqlDB.SetConnMaxLifetime(connMaxLife)
		}
		if connMaxIdle > 0 {
			sqlDB.SetConnMaxIdleTime(connMaxIdle)
		}
	}

	if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	if pluginErr := conn.Use(NewCompanyGuardPlugin()); pluginErr != nil {
		if sqlDB, derr := conn.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("install company guard plugin: %w", pluginErr)
	}
	return conn, nil
}

// ConnectDatabaseWithRetry connects, sets the global DB and returns it.
// The returned pool is the one handed to the report store.
func ConnectDatabaseWithRetry() *gorm.DB {
	dialector, err := Dialector()
	if err != nil {
		log.Fatal(err)
	}

	var attempt int
	for {
		attempt++
		conn, err := openDatabase(dialector)
		if err == nil {
			db.Store(conn)
			log.Printf("connected to database (driver=%s attempt=%d)", DatabaseDriver(), attempt)
			return conn
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func initLog() logger.Interface {
	level := logger.Error
	if boolFromEnv("GORM_DEBUG") {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      level,
			SlowThreshold: time.Second,
		},
	)
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
