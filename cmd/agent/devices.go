package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Hara602/reconnectGuru/internal/watcher"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "列出当前接入的 USB 串口设备",
	Long:  "一次性扫描 sysfs,打印每个 USB 串口的标识字段,方便往过滤器里填值。",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := watcher.ScanSerialDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			cmd.Println("no usb serial devices present")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Device", "Vendor", "Product", "Serial", "Port"})
		for _, d := range devices {
			t.AppendRow(table.Row{d.DeviceNode, d.VendorID, d.ProductID, d.SerialNumber, d.Port})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
