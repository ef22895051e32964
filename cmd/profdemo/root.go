package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/volcengine/apminsight-profiling-demo/config"
)

var (
	configPath  string
	listen      string
	datasetSize int
	profileDir  string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "profdemo",
	Short: "profdemo serves two equivalent queries with different CPU cost under a CPU profile",
	Long: `profdemo generates a synthetic user dataset, starts a CPU profile and serves /issue and
/no-issue. On SIGINT, SIGTERM or SIGQUIT the profile is written to
cpu-profile-<epoch-ms>.cpuprofile and the process exits.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cfg, cmd.Flags())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an .hcl config file")
	rootCmd.Flags().StringVar(&listen, "listen", config.DefaultListen, "address the HTTP server listens on")
	rootCmd.Flags().IntVar(&datasetSize, "dataset-size", 10000, "number of synthetic users to generate")
	rootCmd.Flags().StringVar(&profileDir, "profile-dir", config.DefaultOutputDir, "directory the CPU profile is written to")
	rootCmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
}

// loadConfig reads the config file and lets explicitly set flags win over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd.Flags(), cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg. It runs again on every config reload.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("listen") {
		cfg.Listen = listen
	}
	if flags.Changed("dataset-size") {
		cfg.DatasetSize = datasetSize
	}
	if flags.Changed("profile-dir") {
		cfg.Profile.OutputDir = profileDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}
