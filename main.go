package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-step/config"
	"go-step/debug"
	"go-step/midi"
	"go-step/remote"
	"go-step/sequencer"
	"go-step/theme"
	"go-step/tui"
)

var (
	configPath string
	debugLog   bool
	clockFlag  string
	bpmFlag    int
	httpFlag   string
	outFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "go-step",
	Short: "Launchpad step sequencer",
	Long: `go-step turns a Launchpad X into an 8-stage step sequencer. Markers
placed on the grid shape each stage's pitch, octave, velocity and timing;
notes go out to a MIDI synth port.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/go-step/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write ~/.config/go-step/debug.log")
	rootCmd.Flags().StringVar(&clockFlag, "clock", "", "clock source: internal or external")
	rootCmd.Flags().IntVar(&bpmFlag, "bpm", 0, "tempo of the internal clock")
	rootCmd.Flags().StringVar(&httpFlag, "http", "", "serve the remote control API on this address")
	rootCmd.Flags().StringVar(&outFlag, "out", "", "synth output port (substring match)")
}

// loadConfig reads the config file and applies flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if debugLog {
		if err := debug.Enable(""); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("clock") {
		cfg.Clock.Source = clockFlag
	}
	if flags.Changed("bpm") {
		cfg.Clock.Tempo = bpmFlag
	}
	if flags.Changed("http") {
		cfg.HTTPAddr = httpFlag
	}
	if flags.Changed("out") {
		cfg.SynthOutput.PortName = outFlag
	}
	cfg.Validate()
	return cfg, nil
}

func loadTheme(cfg *config.Config) (*theme.Theme, error) {
	if cfg.Palette == "" {
		return theme.New(nil), nil
	}
	palette, err := theme.LoadGPL(cfg.Palette)
	if err != nil {
		return nil, err
	}
	return theme.New(palette.Merge()), nil
}

func newManager(cfg *config.Config, th *theme.Theme) (*sequencer.Manager, error) {
	source, _ := sequencer.ParseClockSource(cfg.Clock.Source)
	policy, _ := sequencer.ParseResetPolicy(cfg.Clock.ResetPolicy)

	dir, err := cfg.PatternsDir()
	if err != nil {
		return nil, err
	}

	settings := sequencer.DefaultSettings()
	settings.Channel = uint8(cfg.SynthOutput.Channel)
	settings.Source = source
	settings.ResetPolicy = policy
	settings.Mapper = sequencer.NoteMapper{
		DefaultOctave:   cfg.Notes.DefaultOctave,
		DefaultVelocity: cfg.Notes.DefaultVelocity,
		VelocityDelta:   cfg.Notes.VelocityDelta,
	}

	return sequencer.NewManager(sequencer.ManagerConfig{
		Settings:      settings,
		Tempo:         cfg.Clock.Tempo,
		Storage:       sequencer.NewFileStore(dir, cfg.Storage.Keep),
		AutosaveDelay: cfg.AutosaveDelay(),
		Theme:         th,
	}), nil
}

func run(cfg *config.Config) error {
	th, err := loadTheme(cfg)
	if err != nil {
		return err
	}

	manager, err := newManager(cfg, th)
	if err != nil {
		return err
	}
	if err := manager.Restore(); err != nil {
		// start empty rather than refuse to run
		debug.Log("storage", "restore failed: %v", err)
	}
	if err := manager.SetOutputPort(cfg.SynthOutput.PortName); err != nil {
		debug.Log("midi", "%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()

	deviceMgr := midi.NewDeviceManager(cfg.Clock.PortName, cfg.ManualControllers())
	go deviceMgr.Run(ctx)

	if cfg.HTTPAddr != "" {
		srv := remote.NewServer(manager)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				debug.Log("remote", "%v", err)
			}
		}()
	}

	m := tui.NewModel(manager, deviceMgr, cfg, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()

	cancel()
	<-done
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
