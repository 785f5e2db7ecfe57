// Package cli implements the wizreport command line: offline export,
// inspection and load benchmarks over report files.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/logging"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "WIZREPORT"

// Settings are the CLI options resolvable from flags, environment and an
// optional YAML config file.
// Precedence: flags > env > config file > defaults.
type Settings struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Format    string `mapstructure:"format"`
	Repeats   int    `mapstructure:"repeats"`
}

type app struct {
	cfgFile  string
	v        *viper.Viper
	settings Settings
	log      *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// NewRootCommand builds the command tree. Output goes to stdout, logs and
// diagnostics to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "wizreport",
		Short:         "Sort, filter and export semicolon-delimited report files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", pf.Lookup("log-format"))

	root.AddCommand(
		newExportCommand(a),
		newInspectCommand(a),
		newBenchCommand(a),
	)
	return root
}

// load resolves Settings and builds the logger.
func (a *app) load() error {
	v := a.v
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("format", "xlsx")
	v.SetDefault("repeats", 5)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&a.settings); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	a.log = logging.New(a.stderr, a.settings.LogLevel, a.settings.LogFormat)
	a.log.Debug("cli settings loaded",
		"config", v.ConfigFileUsed(),
		"format", a.settings.Format,
		"repeats", a.settings.Repeats,
	)
	return nil
}

// Execute runs the command tree with args and returns the process exit code.
// Failures are printed to stderr with the user-facing message and code when
// the error is a known one.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(stderr, core.FormatUserError(core.NewUserError(err)))
	}
	return 1
}
