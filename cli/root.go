// Package cli is the paper command line: the server plus direct commands
// over the selected notes folder.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ViniZap4/paper-server/config"
	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/logging"
	"github.com/ViniZap4/paper-server/workspace"
)

// app is what every command runs against. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	v          *viper.Viper
	configFile string

	settings config.Settings
	log      zerolog.Logger
	state    *config.State
	ws       *workspace.Workspace
}

func NewRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:   "paper",
		Short: "Plain-text notes and a shared todo list in one folder",
		Long: `Paper keeps plain-text notes and a todos.json list in a folder you pick.

Examples:
  paper folder select ~/notes
  paper notes new
  paper todo add "buy milk"
  paper serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.ws != nil {
				a.ws.Close()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/paper/config.yaml)")
	flags.String("state-file", config.DefaultStateFile(), "file that remembers the selected notes folder")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console or json)")
	_ = a.v.BindPFlag("state_file", flags.Lookup("state-file"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", flags.Lookup("log-format"))

	cmd.AddCommand(
		newServeCmd(a),
		newFolderCmd(a),
		newNotesCmd(a),
		newTodoCmd(a),
		newHashTokenCmd(),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init(stderr io.Writer) error {
	settings, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings

	a.log, err = logging.New(stderr, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}

	a.state, err = config.OpenState(settings.StateFile)
	if err != nil {
		return err
	}

	a.ws = workspace.New(a.state, a.log)
	if err := a.ws.Attach(); err != nil && !errors.Is(err, domain.ErrConfigurationMissing) {
		a.log.Warn().Err(err).Msg("saved notes folder is not usable")
	}
	return nil
}

// confirm asks a yes/no question on the command's terminal. Anything but
// y or yes is a no.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func exitCode(err error) int {
	if errors.Is(err, domain.ErrConfigurationMissing) {
		return 2
	}
	return 1
}

// Main runs the command line and exits the process.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", domain.Describe(err))
		os.Exit(exitCode(err))
	}
}
