package main

import (
	"investbot/internal/config" // Custom import path (Config)
	"investbot/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Create the kv_entries table
}
