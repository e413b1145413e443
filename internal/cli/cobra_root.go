package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// exactArgs is cobra.ExactArgs reporting a usageError with the command's
// Use line.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{msg: fmt.Sprintf("usage: %s", cmd.UseLine())}
		}
		return nil
	}
}

// buildRootCmdWith constructs the command tree wired to cfg.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "mantactl",
		Short:         "Inspect and control Allied Vision cameras",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.Driver, "driver", cfg.Driver, "Camera driver: sim|vimba (defaults MANTACTL_DRIVER or sim)")
	root.PersistentFlags().StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "YAML camera catalog for the sim driver")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error (defaults MANTACTL_LOG_LEVEL or warn)")

	var asJSON bool
	listCmd := &cobra.Command{Use: "list", Aliases: []string{"cameras"}, Short: "List detected cameras", Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdList(cmd, s, asJSON) }) }}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	ifCmd := &cobra.Command{Use: "interfaces", Short: "List transport interfaces", Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdInterfaces(cmd, s, asJSON) }) }}
	ifCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	getCmd := &cobra.Command{Use: "get <camera> <feature>", Short: "Read a feature value", Example: "  mantactl get DEV_000F31000001 ExposureTime", Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdGet(cmd, s, args[0], args[1], asJSON) }) }}
	getCmd.Flags().BoolVar(&asJSON, "json", false, "Print the feature description as JSON")

	setCmd := &cobra.Command{Use: "set <camera> <feature> <value>", Short: "Write a feature value", Example: "  mantactl set DEV_000F31000001 Gain 6.5\n  mantactl set DEV_000F31000001 PixelFormat Mono12", Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdSet(cmd, s, args[0], args[1], args[2]) }) }}

	runCmd := &cobra.Command{Use: "run <camera> <command>", Short: "Run a command feature", Example: "  mantactl run DEV_000F31000001 TriggerSoftware", Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdRun(cmd, s, args[0], args[1]) }) }}

	var grab grabOptions
	grabCmd := &cobra.Command{Use: "grab <camera>", Short: "Capture frames to CBOR records", Example: "  mantactl grab DEV_000F31000001 -n 5 -o frames", Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdGrab(cmd, s, args[0], grab) }) }}
	grabCmd.Flags().IntVarP(&grab.count, "count", "n", 1, "Number of frames to capture")
	grabCmd.Flags().StringVarP(&grab.dir, "out", "o", "frames", "Output directory")
	grabCmd.Flags().IntVar(&grab.buffers, "buffers", 0, "Frame buffers to announce (0 selects the default)")
	grabCmd.Flags().DurationVar(&grab.timeout, "timeout", defaultGrabTimeout, "Maximum wait per frame")

	var watchCount int
	watchCmd := &cobra.Command{Use: "watch", Short: "Print camera plug and open-state events", Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error { return withSession(cmd, cfg, func(s *session) error { return cmdWatch(cmd, s, watchCount, asJSON) }) }}
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many events (0 runs until interrupted)")
	watchCmd.Flags().BoolVar(&asJSON, "json", false, "Print NDJSON events")

	inspectCmd := &cobra.Command{Use: "inspect <record.cbor>", Short: "Describe a frame record written by grab", Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error { return cmdInspect(cmd, args[0]) }}

	root.AddCommand(listCmd, ifCmd, getCmd, setCmd, runCmd, grabCmd, watchCmd, inspectCmd)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)

	return root
}

// withSession starts a session for one command and always shuts it down.
func withSession(cmd *cobra.Command, cfg *Config, fn func(*session) error) error {
	s, err := openSession(cfg, newLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}
