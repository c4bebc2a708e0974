package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usb-cleaner-box/ucb/internal/lcdipc"
)

var lcdCmd = &cobra.Command{
	Use:   "lcd LINE1 [LINE2]",
	Short: "show two lines on the box display, meant for worker scripts",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  doLCD,
}

func doLCD(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		// exported by the box to every worker
		path = viper.GetString("lcd_command_file")
	}
	if path == "" {
		path = config.LCD.CommandFile
	}

	req := lcdipc.Request{Line1: args[0]}
	if len(args) > 1 {
		req.Line2 = args[1]
	}
	slog.DebugContext(cmd.Context(), "sending lcd command", "path", path, "line1", req.Line1, "line2", req.Line2)
	return lcdipc.Send(path, req)
}
