// Command pincode-import loads a delivery tier spreadsheet into MongoDB.
//
//	pincode-import -config ./configs -profile dev pincodes.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fjod/go_grocery/internal/config"
	"github.com/fjod/go_grocery/internal/importer"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
)

func main() {
	configDir := flag.String("config", "./configs", "directory with base.yaml and profile overlays")
	profile := flag.String("profile", os.Getenv("GROCERY_PROFILE"), "config profile, e.g. dev")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall import timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pincode-import [flags] <file.xlsx>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configDir, *profile)
	if err != nil {
		logger.Base().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init("pincode-import", "", cfg.App.LogLevel)

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Error("failed to open spreadsheet", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := repository.RunMigrations(cfg.Mongo.MigrationsPath, cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database, repository.MongoOptions{
		AppName:        "pincode-import",
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Client().Disconnect(context.Background())

	res, err := importer.NewPincodeImporter(repository.NewPincodeRepository(db)).Import(ctx, f)
	if err != nil {
		log.Error("import failed", "file", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	log.Info("import finished", "file", flag.Arg(0), "imported", res.Imported, "skipped", res.Skipped)
}
