package main

import (
	"fmt"

	"github.com/aretw0/gashu/internal/cli"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		headless, _ := cmd.Flags().GetBool("headless")

		opts := cli.ChatOptions{
			GlobalOptions: globalOptions(cmd),
			UserID:        user,
			Headless:      headless,
		}
		if cmd.Flags().Changed("lon") || cmd.Flags().Changed("lat") {
			if !cmd.Flags().Changed("lon") || !cmd.Flags().Changed("lat") {
				return fmt.Errorf("--lon and --lat must be given together")
			}
			lon, _ := cmd.Flags().GetFloat64("lon")
			lat, _ := cmd.Flags().GetFloat64("lat")
			opts.GPS = &domain.Coord{Lon: lon, Lat: lat}
		}
		return cli.RunChat(opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("user", "u", "", "User id to resume (default: a fresh anonymous id)")
	chatCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, prompts or markdown)")
	chatCmd.Flags().Float64("lon", 0, "Device longitude sent with every turn")
	chatCmd.Flags().Float64("lat", 0, "Device latitude sent with every turn")

	rootCmd.RunE = chatCmd.RunE
}
