package main

import (
	"flag"
	"log"

	"github.com/classpoints/backend/internal/database"
	"github.com/classpoints/backend/migrations"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

func main() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"up"}
	}

	db := database.InitDatabase()
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}

	if err := goose.Run(args[0], db.DB, ".", args[1:]...); err != nil {
		log.Fatalf("goose %s: %v", args[0], err)
	}
}
