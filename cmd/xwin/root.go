package main

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "xwin",
		Short: "xwin - X11 top-level windows driven from configuration",
		Long: `xwin opens top-level X11 windows described in a YAML file and keeps
their protocol state (size hints, EWMH state, fullscreen, scale factor)
in sync with the window manager and the RandR output layout.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/xwin/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads --config, or the default path when the flag is unset.
func loadConfig() (*config.LoadResult, error) {
	path := cfgFile
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return res, nil
}
