package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go-step/config"
	"go-step/midi"
	"go-step/theme"
)

var saveDetected bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, ok := midi.PortNames()
		if !ok {
			return errHung
		}
		fmt.Println("=== MIDI Input Ports ===")
		for i, name := range ins {
			fmt.Printf("  %d: %s\n", i, name)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, name := range outs {
			fmt.Printf("  %d: %s\n", i, name)
		}
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Find a Launchpad X",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out, ok := midi.FindLaunchpad()
		if !ok {
			fmt.Println("No Launchpad found")
			return nil
		}
		fmt.Printf("Found input: %s\n", in.String())
		if out != nil {
			fmt.Printf("Found output: %s\n", out.String())
		}
		if !saveDetected {
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.AddController(config.ControllerConfig{
			PortName:    in.String(),
			Type:        config.ControllerLaunchpadX,
			AutoConnect: true,
		})
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Println("Saved to config")
		return nil
	},
}

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "Light the grid with the palette to check colors",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out, ok := midi.FindLaunchpad()
		if !ok {
			fmt.Println("No Launchpad found")
			return nil
		}
		lp, err := midi.NewLaunchpadController(in.String(), nil, out)
		if err != nil {
			return err
		}
		defer lp.Close()

		th := theme.New(nil)
		var updates []midi.LEDUpdate
		for i := 0; i < midi.GridSize*midi.GridSize; i++ {
			c := theme.ColorID(i % int(theme.NumColors))
			updates = append(updates, midi.LEDUpdate{Row: i / midi.GridSize, Col: i % midi.GridSize, Color: th.RGB(c)})
		}
		if err := lp.SetLEDBatch(updates); err != nil {
			return err
		}

		fmt.Println("Press Enter to clear...")
		fmt.Scanln()
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Print port changes every 2 seconds",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")
		last := ""
		for {
			ins, outs, ok := midi.PortNames()
			if ok {
				current := strings.Join(ins, ",") + "|" + strings.Join(outs, ",")
				if current != last {
					fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
					fmt.Printf("  Inputs: %v\n", ins)
					fmt.Printf("  Outputs: %v\n", outs)
					for _, name := range ins {
						if midi.IsLaunchpad(name) {
							fmt.Println("  -> Launchpad detected!")
						}
					}
					last = current
				}
			}
			time.Sleep(2 * time.Second)
		}
	},
}

var errHung = errors.New("port scan timed out; CoreMIDI may be hung (sudo killall coreaudiod midiserver)")

func init() {
	detectCmd.Flags().BoolVar(&saveDetected, "save", false, "add the Launchpad to the config")
	portsCmd.AddCommand(detectCmd, ledsCmd, pollCmd)
	rootCmd.AddCommand(portsCmd)
}
