// Package storage はリレーショナルデータベースへの接続とスキーマ管理を提供します。
package storage

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/inkwell/internal/config"
)

// Open は driver に応じたデータベース接続を開きます。
// logger が nil の場合 SQL ログは出力しません。
func Open(driver, dsn string, l *log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(dsn))
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	gormLogger := logger.Discard
	if l != nil {
		gormLogger = logger.New(l, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	if driver == config.DriverSQLite {
		// 埋め込みDBは書き込みを1接続に直列化する
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	if l != nil {
		l.Printf("database connection established driver=%s", driver)
	}
	return db, nil
}

// Migrate はテーブルが無ければ作成します。
func Migrate(db *gorm.DB, models ...any) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Reset は既存のテーブルを削除してから作り直します。既存データはすべて失われます。
func Reset(db *gorm.DB, models ...any) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if err := db.Migrator().DropTable(models...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return Migrate(db, models...)
}

// Close は下位の *sql.DB を閉じます。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteDSN は外部キー制約を有効にするパラメータを付与します。
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
