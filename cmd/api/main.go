// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/inkwell/internal/config"
	"github.com/yourusername/inkwell/internal/server"
	"github.com/yourusername/inkwell/internal/sessionstore"
	"github.com/yourusername/inkwell/internal/storage"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	logger := log.New(os.Stderr, "[inkwell] ", log.LstdFlags)

	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer storage.Close(db)

	// テーブルが無い場合だけ作成する。作り直しは initdb で行う
	if err := storage.Migrate(db, server.Models...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, closeStore, err := sessionstore.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}
	defer closeStore()

	router := server.New(cfg, db, store, logger)

	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s, db: %s, sessions: %s)", addr, cfg.GinMode, cfg.DBDriver, cfg.SessionBackend)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
