package main

import (
	"github.com/rusenback/webtopd/internal/client"
	"github.com/rusenback/webtopd/internal/tui"
	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Watch a running webtopd in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := client.New(cfg.URL, cfg.User, cfg.Pass)
		if err != nil {
			return err
		}

		return tui.Run(cmd.Context(), c)
	},
}

func init() {
	topCmd.Flags().String("url", "http://localhost:8090", "address of the webtopd server")
	bind(topCmd, "url", "url")
}
