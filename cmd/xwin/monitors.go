package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/1broseidon/xwin/internal/platform"
	"github.com/spf13/cobra"
)

var monitorsModes bool

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List RandR outputs and their scale factors",
	Example: `  # List connected outputs
  xwin monitors

  # Include every video mode an output advertises
  xwin monitors --modes`,
	Args: cobra.NoArgs,
	RunE: runMonitors,
}

func init() {
	monitorsCmd.Flags().BoolVarP(&monitorsModes, "modes", "m", false, "list video modes of each output")
}

func runMonitors(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := res.Config
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return err
	}
	defer backend.Disconnect()

	monitors, err := backend.Monitors()
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}

	out := cmd.OutOrStdout()
	if wm := backend.WMName(); wm != "" {
		fmt.Fprintf(out, "Window manager: %s\n", wm)
	}
	if desktops, err := backend.Connection().Desktops(); err == nil && desktops.Count > 0 {
		fmt.Fprintf(out, "Desktop: %s (%d of %d)\n", desktops.Name(desktops.Current), desktops.Current+1, desktops.Count)
	}
	fmt.Fprintln(out)
	printMonitors(out, monitors, monitorsModes)
	return nil
}

func printMonitors(out io.Writer, monitors []platform.Monitor, modes bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOSITION\tSIZE\tSCALE\tREFRESH\tPRIMARY")
	for _, m := range monitors {
		primary := ""
		if m.Primary {
			primary = "*"
		}
		fmt.Fprintf(w, "%s\t%d,%d\t%dx%d\t%.2f\t%d.%03dHz\t%s\n",
			m.Name, m.Position.X, m.Position.Y, m.Size.Width, m.Size.Height,
			m.ScaleFactor, m.RefreshRateMillihertz/1000, m.RefreshRateMillihertz%1000, primary)
		if modes {
			for _, mode := range m.Modes {
				fmt.Fprintf(w, "  %s\t\t\t\t\t\n", mode)
			}
		}
	}
	w.Flush()
}
