//go:build windows
// +build windows

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xiongyaya/renderdoc/internal/capture"
	"github.com/xiongyaya/renderdoc/internal/injector"
	"github.com/xiongyaya/renderdoc/internal/logging"
	"github.com/xiongyaya/renderdoc/internal/process"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "renderdoccmd",
		Short:         "Command-line wrapper for the capture tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newInjector := func() (*injector.Injector, error) {
		zl, err := logging.New("", verbose)
		if err != nil {
			return nil, errors.Wrap(err, "initialising logger")
		}
		return injector.New(logging.NewLoggerAdapter(zl)), nil
	}

	root.AddCommand(newInjectCommand(newInjector))
	root.AddCommand(newLaunchCommand(newInjector))
	root.AddCommand(newCap32for64Command(newInjector))
	root.AddCommand(newGlobalHookCommand())

	return root
}

func decodeCapOpts(capopts string) (*capture.Options, error) {
	if capopts == "" {
		return nil, nil
	}
	return capture.DecodeOptions(capopts)
}

func newInjectCommand(newInjector func() (*injector.Injector, error)) *cobra.Command {
	var (
		pid     uint32
		name    string
		logfile string
		capopts string
		wait    bool
	)

	cmd := &cobra.Command{
		Use:   "inject [+env-<op> <name> <value>]...",
		Short: "Inject the capture library into a running process",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := parseEnvArgs(args)
			if err != nil {
				return err
			}

			opts, err := decodeCapOpts(capopts)
			if err != nil {
				return err
			}

			if pid == 0 {
				if name == "" {
					return errors.New("one of --pid or --process is required")
				}
				matches := process.NewInfo().FindByName(name)
				if len(matches) == 0 {
					return errors.Errorf("no running process named %q", name)
				}
				if len(matches) > 1 {
					return errors.Errorf("%d processes named %q, use --pid", len(matches), name)
				}
				pid = uint32(matches[0].PID)
			}

			if !process.Exists(pid) {
				return errors.Errorf("no process with PID %d", pid)
			}

			inj, err := newInjector()
			if err != nil {
				return err
			}

			ident := inj.InjectIntoProcess(pid, mods, logfile, opts, wait)
			if ident == 0 {
				return errors.Errorf("injection into PID %d failed", pid)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ident)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&pid, "pid", 0, "target process ID")
	cmd.Flags().StringVar(&name, "process", "", "target process name (must be unique)")
	cmd.Flags().StringVar(&logfile, "log", "", "capture log file path")
	cmd.Flags().StringVar(&capopts, "capopts", "", "encoded capture options")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the target to exit")

	return cmd
}

func newLaunchCommand(newInjector func() (*injector.Injector, error)) *cobra.Command {
	var (
		workdir string
		logfile string
		capopts string
		wait    bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "launch <app> [args...]",
		Short: "Launch a program with the capture library injected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := decodeCapOpts(capopts)
			if err != nil {
				return err
			}

			inj, err := newInjector()
			if err != nil {
				return err
			}

			app := args[0]
			cmdline := strings.Join(args[1:], " ")

			if plain {
				pid := inj.LaunchProcess(app, workdir, cmdline)
				if pid == 0 {
					return errors.Errorf("couldn't launch %q", app)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", pid)
				return nil
			}

			ident := inj.LaunchAndInjectIntoProcess(app, workdir, cmdline, nil, logfile, opts, wait)
			if ident == 0 {
				return errors.Errorf("couldn't launch and inject %q", app)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ident)
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", "", "working directory, defaults to the app's directory")
	cmd.Flags().StringVar(&logfile, "log", "", "capture log file path")
	cmd.Flags().StringVar(&capopts, "capopts", "", "encoded capture options")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the child to exit")
	cmd.Flags().BoolVar(&plain, "no-inject", false, "launch only, skip injection")

	return cmd
}

// newCap32for64Command is the receiving end of the WoW64 delegation: a
// 64-bit controller spawns the 32-bit build of this executable with this
// command line. The control identifier travels back as the exit code.
func newCap32for64Command(newInjector func() (*injector.Injector, error)) *cobra.Command {
	var (
		pid     uint32
		logfile string
		capopts string
	)

	cmd := &cobra.Command{
		Use:    "cap32for64 --pid=<N> [+env-<op> <name> <value>]...",
		Short:  "Inject into a 32-bit process on behalf of a 64-bit controller",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid == 0 {
				return errors.New("--pid is required")
			}

			mods, err := parseEnvArgs(args)
			if err != nil {
				return err
			}

			opts, err := decodeCapOpts(capopts)
			if err != nil {
				return err
			}

			inj, err := newInjector()
			if err != nil {
				return err
			}

			ident := inj.InjectIntoProcess(pid, mods, logfile, opts, false)
			os.Exit(int(ident))
			return nil
		},
	}

	cmd.Flags().Uint32Var(&pid, "pid", 0, "target process ID")
	cmd.Flags().StringVar(&logfile, "log", "", "capture log file path")
	cmd.Flags().StringVar(&capopts, "capopts", "", "encoded capture options")

	return cmd
}

func newGlobalHookCommand() *cobra.Command {
	var (
		match   string
		logfile string
		capopts string
	)

	cmd := &cobra.Command{
		Use:    "globalhook --match <glob>",
		Short:  "Serve a system-wide capture hook",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if match == "" {
				return errors.New("--match is required")
			}
			if _, err := decodeCapOpts(capopts); err != nil {
				return err
			}
			_ = logfile

			return errors.New("the global hook server is not part of this build")
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "path glob of processes to hook")
	cmd.Flags().StringVar(&logfile, "log", "", "capture log file path")
	cmd.Flags().StringVar(&capopts, "capopts", "", "encoded capture options")

	return cmd
}
