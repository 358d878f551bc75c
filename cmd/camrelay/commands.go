package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/camrelay/camrelay/internal/config"
	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/discovery"
	"github.com/camrelay/camrelay/internal/logging"
	"github.com/camrelay/camrelay/internal/registry"
	"github.com/camrelay/camrelay/internal/server"
	"github.com/camrelay/camrelay/internal/session"
)

// Serve command flags
var (
	configPath string
	listenAddr string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the discovery and relay daemon",
	Long: `Start the camrelay daemon.

The daemon serves the HTTP API (discovery triggering, device list,
snapshot and MJPEG relays, WebSocket event feed) until interrupted.
Configuration is read from the OS-conventional config file unless
--config points elsewhere; flags override the file.`,
	Example: `  # Start with defaults (listen on :8080)
  camrelay serve

  # Start on a custom address with debug logging
  camrelay serve --listen :9000 --log-level debug

  # Start with an explicit config file
  camrelay serve --config ./camrelay.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: OS-conventional location)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if cfg.LogLevel != "" {
		err = logging.Initialize(cfg.LogLevel)
	} else {
		err = logging.InitializeFromEnv()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	opener := session.NewOpener()
	reg := registry.New()

	var opts []discovery.Option
	if cfg.Discovery.EnableMDNS {
		opts = append(opts, discovery.WithSecondary(discovery.NewMDNSProber()))
	}
	orch := discovery.New(discovery.NewUDPProber(), opener, reg, opts...)

	srv := server.New(cfg, orch, opener, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// Discover command flags
var (
	discoverUsername string
	discoverPassword string
	discoverTimeout  int
	discoverMDNS     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a one-shot discovery pass",
	Long: `Discover ONVIF cameras on the local network and print the results.

Sends a WS-Discovery probe, opens an authenticated session against every
responder, and prints the cameras that resolved a usable stream or
snapshot URL. Cameras that reject the credentials or stall are skipped.`,
	Example: `  # Discover with default 5 second probe window
  camrelay discover --username admin --password secret

  # Longer window for slow networks, with the mDNS source enabled
  camrelay discover --username admin --password secret --timeout 15 --mdns`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverUsername, "username", "", "ONVIF username (required)")
	discoverCmd.Flags().StringVar(&discoverPassword, "password", "", "ONVIF password (required)")
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 5, "Probe collection window in seconds")
	discoverCmd.Flags().BoolVar(&discoverMDNS, "mdns", false, "Also browse mDNS for cameras")
	_ = discoverCmd.MarkFlagRequired("username")
	_ = discoverCmd.MarkFlagRequired("password")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	timeout := time.Duration(discoverTimeout) * time.Second
	fmt.Printf("Discovering ONVIF cameras (timeout: %s)...\n\n", timeout)

	var opts []discovery.Option
	if discoverMDNS {
		opts = append(opts, discovery.WithSecondary(discovery.NewMDNSProber()))
	}
	orch := discovery.New(discovery.NewUDPProber(), session.NewOpener(), registry.New(), opts...)

	records, err := orch.Discover(context.Background(), discovery.Request{
		Credentials: device.Credentials{
			Username: discoverUsername,
			Password: discoverPassword,
		},
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No cameras found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure cameras are powered on and reachable on this network segment")
		fmt.Println("  - Check that the network allows UDP multicast (port 3702)")
		fmt.Println("  - Verify the ONVIF credentials; cameras that reject them are skipped")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Println(renderDeviceTable(records))
	fmt.Printf("\nFound %d camera(s). Run 'camrelay serve' to expose them over the HTTP API.\n", len(records))

	return nil
}
