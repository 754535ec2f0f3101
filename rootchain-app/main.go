package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/compose-network/rootchain/log"
	"github.com/compose-network/rootchain/rootchain-app/config"
)

const defaultConfigPath = "rootchain-app/configs/config.yaml"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "rootchain",
		Short: "Plasma root chain",
		Long: banner + "\n\nRoot chain for a Plasma child chain: block commitments, deposits, " +
			"exits, challenges and priority-ordered exit finalization.",
		RunE: runApp,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfig,
	}
)

const banner = `
██████╗  ██████╗  ██████╗ ████████╗ ██████╗██╗  ██╗ █████╗ ██╗███╗   ██╗
██╔══██╗██╔═══██╗██╔═══██╗╚══██╔══╝██╔════╝██║  ██║██╔══██╗██║████╗  ██║
██████╔╝██║   ██║██║   ██║   ██║   ██║     ███████║███████║██║██╔██╗ ██║
██╔══██╗██║   ██║██║   ██║   ██║   ██║     ██╔══██║██╔══██║██║██║╚██╗██║
██║  ██║╚██████╔╝╚██████╔╝   ██║   ╚██████╗██║  ██║██║  ██║██║██║ ╚████║
╚═╝  ╚═╝ ╚═════╝  ╚═════╝    ╚═╝    ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝`

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()
	return rootCmd.Execute()
}

func initCommands() {
	cobra.OnInitialize(initConfig)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// API flags
	rootCmd.PersistentFlags().String("listen-addr", "", "HTTP API listen address")
	rootCmd.PersistentFlags().Bool("cors", false, "enable permissive CORS on the HTTP API")

	// Root chain flags
	rootCmd.PersistentFlags().String("operator", "", "operator address allowed to submit blocks")
	rootCmd.PersistentFlags().String("store-backend", "", "state backend (memory, bolt)")
	rootCmd.PersistentFlags().String("store-path", "", "bolt database path")

	// Finalizer and metrics flags
	rootCmd.PersistentFlags().Bool("finalizer", true, "run the background exit finalizer")
	rootCmd.PersistentFlags().Duration("finalizer-interval", 0, "exit finalizer interval")
	rootCmd.PersistentFlags().Bool("metrics", false, "enable metrics")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = defaultConfigPath
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	fmt.Println(banner)
	fmt.Println()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := log.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	log.Info().
		Str("config_file", cfgFile).
		Str("listen_addr", cfg.API.ListenAddr).
		Str("store_backend", cfg.Store.Backend).
		Str("operator", cfg.RootChain.Operator).
		Bool("finalizer_enabled", cfg.Finalizer.Enabled).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(cmd.Context())
}

func runVersion(*cobra.Command, []string) {
	fmt.Println(banner)
	fmt.Println()
	fmt.Printf("Plasma Root Chain\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}

	if flags.Changed("listen-addr") {
		cfg.API.ListenAddr, _ = flags.GetString("listen-addr")
	}
	if flags.Changed("cors") {
		cfg.API.CORS, _ = flags.GetBool("cors")
	}

	if flags.Changed("operator") {
		cfg.RootChain.Operator, _ = flags.GetString("operator")
	}
	if flags.Changed("store-backend") {
		cfg.Store.Backend, _ = flags.GetString("store-backend")
	}
	if flags.Changed("store-path") {
		cfg.Store.Path, _ = flags.GetString("store-path")
	}

	if flags.Changed("finalizer") {
		cfg.Finalizer.Enabled, _ = flags.GetBool("finalizer")
	}
	if flags.Changed("finalizer-interval") {
		cfg.Finalizer.Interval, _ = flags.GetDuration("finalizer-interval")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
}
