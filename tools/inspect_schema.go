package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/database"
	"go.uber.org/zap"
)

// Prints the DDL that AutoMigrate produces for the sqlite dialect.
func main() {
	var path string
	flag.StringVar(&path, "db", ":memory:", "sqlite database file")
	flag.Parse()

	cfg := &config.Config{DBType: "sqlite", DBDatabase: path, DBLogLevel: "silent", DBConnectionLimit: 1}
	db, err := database.Connect(cfg, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&schema)
		fmt.Println(schema)

		var indexes []string
		db.Raw("SELECT sql FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL", table).Scan(&indexes)
		for _, idx := range indexes {
			fmt.Println(idx)
		}
	}
}
