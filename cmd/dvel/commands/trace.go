package commands

import (
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dvel/src/trace"
)

var (
	traceConvertIn   string
	traceConvertOut  string
	traceConvertFrom string
	traceConvertTo   string
)

// NewTraceCmd returns the "trace" command group.
func NewTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect and convert dvel trace files",
	}
	cmd.AddCommand(newTraceDumpCmd())
	return cmd
}

// newTraceDumpCmd returns "dvel trace dump": it re-renders an existing trace
// file (written by "dvel simulate --trace-out") in the requested format,
// per spec.md §6's JSON encoding and D5's msgpack variant.
func newTraceDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Re-render a trace file as json or msgpack",
		RunE:  traceConvert,
	}
	cmd.Flags().StringVar(&traceConvertIn, "in", "", "Input trace file (required)")
	cmd.Flags().StringVar(&traceConvertOut, "out", "", "Output trace file (required)")
	cmd.Flags().StringVar(&traceConvertFrom, "from", "json", "Input format: json or msgpack")
	cmd.Flags().StringVar(&traceConvertTo, "to", "msgpack", "Output format: json or msgpack")
	return cmd
}

func traceConvert(cmd *cobra.Command, args []string) error {
	if traceConvertIn == "" || traceConvertOut == "" {
		return fmt.Errorf("trace dump: --in and --out are required")
	}

	data, err := ioutil.ReadFile(traceConvertIn)
	if err != nil {
		return fmt.Errorf("reading %s: %w", traceConvertIn, err)
	}

	rows, err := loadTrace(data, traceConvertFrom)
	if err != nil {
		return fmt.Errorf("decoding %s trace: %w", traceConvertFrom, err)
	}

	return dumpTrace(rows, traceConvertOut, traceConvertTo)
}

func loadTrace(data []byte, format string) ([]trace.Row, error) {
	switch format {
	case "json":
		return trace.LoadJSON(data)
	case "msgpack":
		return trace.LoadMsgpack(data)
	default:
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
}

func dumpTrace(rows []trace.Row, path, format string) error {
	var data []byte
	var err error

	switch format {
	case "json":
		data, err = trace.DumpJSON(rows)
	case "msgpack":
		data, err = trace.DumpMsgpack(rows)
	default:
		return fmt.Errorf("unknown trace format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}

	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Printf("wrote %d trace rows to %s (%s)\n", len(rows), path, format)
	return nil
}
