// Package main は既存のテーブルを削除してスキーマを作り直すコマンドです。
package main

import (
	"fmt"
	"log"

	"github.com/yourusername/inkwell/internal/config"
	"github.com/yourusername/inkwell/internal/server"
	"github.com/yourusername/inkwell/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer storage.Close(db)

	if err := storage.Reset(db, server.Models...); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	fmt.Println("Initialized the database.")
}
