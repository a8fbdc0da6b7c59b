package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/mrfscan/internal/discovery"
	"github.com/gyeh/mrfscan/internal/exitcode"
	"github.com/gyeh/mrfscan/internal/logging"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List hospitals and their MRF URLs without extracting",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.LoadFromFile(configPath); err != nil {
		log.Error().Err(err).Msg("config load failed")
		os.Exit(exitcode.ConfigError)
	}
	if err := cfg.ValidateDiscovery(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	client := buildClient(&cfg, log)
	svc := discovery.New(client, &cfg, log)

	hospitals, err := svc.Discover(ctx, cfg.Cities)
	if err != nil {
		log.Error().Err(err).Msg("discovery failed")
		os.Exit(exitcode.DiscoveryError)
	}

	for _, h := range hospitals {
		urls := "-"
		if h.HasMRF() {
			urls = strings.Join(h.MRFURLs, " ")
		}
		fmt.Printf("%s\t%s, %s %s\t%s\n", h.Name, h.City, h.State, h.Zip, urls)
	}
	log.Info().Int("hospitals", len(hospitals)).Msg("discovery complete")
	return nil
}
