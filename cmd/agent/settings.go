package main

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Hara602/reconnectGuru/internal/controller"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "打印当前生效的设置",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadSettings()
		if err != nil {
			return err
		}
		cfg := store.Snapshot()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Setting", "Value"})
		t.AppendRow(table.Row{"enabled", strconv.FormatBool(cfg.Enabled)})
		t.AppendRow(table.Row{"connect_delay_seconds", cfg.ConnectDelaySeconds})
		t.AppendRow(table.Row{"filters", controller.FiltersFrom(cfg).String()})
		t.AppendRow(table.Row{"message_on_connect", strconv.FormatBool(cfg.MessageOnConnect)})
		t.AppendRow(table.Row{"serial.baudrate", baudDisplay(cfg.SerialBaudRate)})
		t.AppendRow(table.Row{"octoprint.url", cfg.OctoPrintURL})
		t.AppendRow(table.Row{"octoprint.api_key", maskKey(cfg.OctoPrintAPIKey)})
		t.AppendRow(table.Row{"octoprint.poll_interval_seconds", cfg.PollIntervalSeconds})
		t.AppendRow(table.Row{"log.level", cfg.LogLevel})
		t.AppendRow(table.Row{"log.file", logFileDisplay(cfg.LogFile)})
		t.SetStyle(table.StyleLight)
		t.Render()

		if file := store.ConfigFile(); file != "" {
			cmd.Printf("config file: %s\n", file)
		} else {
			cmd.Println("config file: (defaults only)")
		}
		return nil
	},
}

func baudDisplay(rate int) string {
	if rate <= 0 {
		return "(host decides)"
	}
	return strconv.Itoa(rate)
}

// maskKey 日志和终端里都不给看完整的 api key
func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}

func logFileDisplay(path string) string {
	if path == "" {
		return "(console only)"
	}
	return path
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
