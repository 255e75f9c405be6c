// Package cmdutil holds the state and printing helpers shared across
// s3xctl's subcommands: the global flag values populated by the root
// command's PersistentPreRun, the process-wide Facade handle, and output
// formatting built atop internal/cliutil/output.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/progress"
	"github.com/AccessDevops/S3Explorer/internal/appconfig"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/output"
	"github.com/AccessDevops/S3Explorer/pkg/facade"
)

// Flags holds the global flag values set by the root command's
// PersistentPreRun.
var Flags = &GlobalFlags{}

// GlobalFlags are s3xctl's persistent flags.
type GlobalFlags struct {
	Output  string
	NoColor bool
	Verbose bool
}

var appFacade *facade.Facade
var appEmitter *progress.ConsoleEmitter
var appConfig *appconfig.Config

// SetConfig registers the loaded application configuration.
func SetConfig(cfg *appconfig.Config) { appConfig = cfg }

// GetConfig returns the loaded application configuration, defaulting when
// SetConfig was never called (tests).
func GetConfig() *appconfig.Config {
	if appConfig == nil {
		return appconfig.Default()
	}
	return appConfig
}

// SetFacade registers the process-wide Facade, built once in main().
func SetFacade(f *facade.Facade) { appFacade = f }

// GetFacade returns the process-wide Facade.
func GetFacade() *facade.Facade { return appFacade }

// SetEmitter registers the process-wide progress emitter, built once in
// main() and passed to facade.New so transfer/index commands can block on
// its Wait* channels for a command's terminal state.
func SetEmitter(e *progress.ConsoleEmitter) { appEmitter = e }

// GetEmitter returns the process-wide progress emitter.
func GetEmitter() *progress.ConsoleEmitter { return appEmitter }

func outputFormat() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data as JSON/YAML, or as a table via tableRenderer
// (emptyMsg instead, if isEmpty and the format is table).
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message when the output format is table.
func PrintSuccess(msg string) {
	format, err := outputFormat()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, format, !Flags.NoColor).Success(msg)
}

// PrintResource prints a single resource: table via tableRenderer, else
// JSON/YAML of data directly.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}
