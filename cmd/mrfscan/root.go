package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/mrfscan/internal/config"
)

var (
	cfg        config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "mrfscan",
	Short: "Hospital price-transparency file discovery and extraction",
	Long: "Discovers hospitals in target cities, locates their machine-readable " +
		"price files, and streams normalized billing-code records into Postgres or Parquet.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config.yaml", "Path to YAML config file")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}
