package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rusenback/webtopd/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "webtopd",
	Short:         "Dashboard and control plane for a fleet of webtop desktop containers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("user", "admin", "basic auth user")
	rootCmd.PersistentFlags().String("pass", "webtop123", "basic auth password")

	bind(rootCmd, "web.user", "user")
	bind(rootCmd, "web.pass", "pass")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(topCmd)
}

// bind ties a viper key to a persistent or local flag of cmd
func bind(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(v, cfgFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "webtopd: %v\n", err)
		os.Exit(1)
	}
}
