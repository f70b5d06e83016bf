package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunFunc is the entry point of a command, called after options are
// loaded, completed and validated.
type RunFunc func() error

// App is a command line application built from options and a run function.
type App struct {
	basename    string
	name        string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	noConfig    bool
	args        cobra.PositionalArgs
	cmd         *cobra.Command
	viper       *viper.Viper
}

// Option configures an App.
type Option func(*App)

// WithOptions binds opts to the command flags, the config file and the environment.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function run by the command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig drops the --config flag.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithValidArgs sets the positional argument validator.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects every positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// NewApp creates an App named basename.
func NewApp(basename string, name string, opts ...Option) *App {
	a := &App{
		basename: basename,
		name:     name,
		viper:    viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
		RunE:          a.runCommand,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		addConfigFlag(a.basename, fss.FlagSet("global"))
	}
	fss.FlagSet("global").BoolP("help", "h", false, fmt.Sprintf("Help for %s.", a.basename))

	for _, name := range fss.Order {
		cmd.Flags().AddFlagSet(fss.FlagSets[name])
	}

	cmd.SetUsageFunc(func(cmd *cobra.Command) error {
		fmt.Fprintf(cmd.OutOrStderr(), "Usage:\n  %s\n", cmd.UseLine())
		PrintSections(cmd.OutOrStderr(), fss, 0)
		return nil
	})
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		PrintSections(cmd.OutOrStdout(), fss, 0)
	})

	a.cmd = cmd
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if a.options != nil {
		if err := a.applyOptions(cmd); err != nil {
			return err
		}
	}

	if a.runFunc == nil {
		return errors.New("no run function configured")
	}
	return a.runFunc()
}

func (a *App) applyOptions(cmd *cobra.Command) error {
	if !a.noConfig {
		if err := loadConfig(a.viper, a.basename); err != nil {
			return err
		}
	}
	if err := a.viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.viper.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	watchConfig(a.viper)
	return nil
}
