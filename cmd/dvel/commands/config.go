package commands

import (
	"github.com/mosaicnetworks/dvel/src/config"
)

// CLIConfig wraps config.Config with the flags that only make sense at the
// command-line boundary (which nodes a simulation run should create, what
// format a trace dump should use).
type CLIConfig struct {
	Dvel config.Config `mapstructure:",squash"`

	// Nodes is the comma-separated list of node IDs a "simulate" run
	// creates, each gossiping on the simulated bus under its own seed.
	Nodes string `mapstructure:"nodes"`

	// Ticks is the number of ticks a "simulate" run drives the network
	// through.
	Ticks uint64 `mapstructure:"ticks"`

	// TraceOut, when non-empty, is the file a "simulate" run dumps its
	// in-memory trace rows to on completion.
	TraceOut string `mapstructure:"trace-out"`

	// TraceFormat selects the wire encoding used by TraceOut ("json" or
	// "msgpack"). "trace dump" takes its formats from its own --from/--to
	// flags instead.
	TraceFormat string `mapstructure:"trace-format"`
}

// NewDefaultCLIConfig returns a CLIConfig with every default value set.
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Dvel:        *config.NewDefaultConfig(),
		Nodes:       "A,B,C",
		Ticks:       200,
		TraceFormat: "json",
	}
}
