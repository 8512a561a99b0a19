package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aviary-app/aviary/internal/avatar"
	"github.com/aviary-app/aviary/internal/bundle"
	"github.com/aviary-app/aviary/internal/config"
	"github.com/aviary-app/aviary/internal/dashboard"
	"github.com/aviary-app/aviary/internal/mcptools"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir string
	Addr      string
	DataRoot  string
	RemoteURL string
	APIKey    string
	ServeMCP  bool
	MCPAddr   string
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("aviary", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing aviary.yml")
	fs.StringVar(&flags.Addr, "addr", "", "dashboard listen address (default :8080)")
	fs.StringVar(&flags.DataRoot, "data-root", "", "root directory of per-user analysis bundles")
	fs.StringVar(&flags.RemoteURL, "remote-url", "", "base URL of the filtered-read API")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for the filtered-read API (overrides AVIARY_API_KEY)")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "also expose the dashboard tools over MCP")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", ":8091", "MCP listen address")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, flags)

	if cfg.DataRoot == "" {
		return fmt.Errorf("a data root is required (-data-root or dataRoot in aviary.yml)")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Remote.APIKey == "" {
		cfg.Remote.APIKey = os.Getenv("AVIARY_API_KEY")
	}

	logCfg := zap.NewProductionConfig()
	if cfg.Verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	store := bundle.NewStore(cfg.DataRoot, bundle.WithLogger(logger.Named("bundle")))
	resolver := avatar.New(avatar.Config{
		BaseURL:      cfg.Remote.BaseURL,
		ResourcePath: cfg.Remote.ResourcePath,
		APIKey:       cfg.Remote.APIKey,
		IDColumn:     cfg.Remote.IDColumn,
		ValueColumn:  cfg.Remote.ValueColumn,
	}, avatar.WithLogger(logger.Named("avatar")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := dashboard.NewServer(store, resolver,
		dashboard.WithServerLogger(logger.Named("dashboard")))
	if err := srv.Start(ctx, cfg.Addr); err != nil {
		return err
	}
	logger.Info("dashboard listening", zap.String("addr", cfg.Addr))

	if flags.ServeMCP {
		svc := mcptools.NewDashboardService(store, resolver)
		go func() {
			if err := mcptools.RunMCPServer(ctx, svc, flags.MCPAddr); err != nil {
				logger.Error("mcp server", zap.Error(err))
			}
		}()
		logger.Info("mcp tools listening", zap.String("addr", flags.MCPAddr))
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// applyFlags lets command-line flags override file-based configuration.
func applyFlags(cfg *config.ProjectConfig, flags cliFlags) {
	if flags.Addr != "" {
		cfg.Addr = flags.Addr
	}
	if flags.DataRoot != "" {
		cfg.DataRoot = flags.DataRoot
	}
	if flags.RemoteURL != "" {
		cfg.Remote.BaseURL = flags.RemoteURL
	}
	if flags.APIKey != "" {
		cfg.Remote.APIKey = flags.APIKey
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
}
