package testutil

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs c with args and returns everything written to stdout,
// including slog output and the command's own output.
func Execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()

	// Capture the output of the command to a string
	// https://stackoverflow.com/questions/10473800/in-go-how-do-i-capture-stdout-of-a-function-into-a-string#comment46866149_10476304
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	c.SetOut(w)
	c.SetErr(w)
	c.SetArgs(args)
	err = c.Execute()

	w.Close()
	os.Stdout = old
	c.SetOut(nil)
	c.SetErr(nil)
	out := <-outC

	return strings.TrimSpace(out), err
}

// ResetFlags restores every flag of c and its subcommands to its default so
// that commands can be executed repeatedly within one test binary.
func ResetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		if _, ok := f.Value.(pflag.SliceValue); ok {
			// Slice values append once set, and Replace does not clear that,
			// so they are swapped for fresh values instead.
			f.Value = freshSliceValue(t, f)
		} else if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("failed to reset flag %s: %v", f.Name, err)
		}
		f.Changed = false
	}

	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		ResetFlags(t, sub)
	}
}

// freshSliceValue returns a never-set value of f's type holding f's default.
func freshSliceValue(t *testing.T, f *pflag.Flag) pflag.Value {
	t.Helper()

	var def []string
	if inner := strings.TrimSuffix(strings.TrimPrefix(f.DefValue, "["), "]"); inner != "" {
		records, err := csv.NewReader(strings.NewReader(inner)).Read()
		if err != nil {
			t.Fatalf("failed to parse default of flag %s: %v", f.Name, err)
		}
		def = records
	}

	fs := pflag.NewFlagSet(f.Name, pflag.ContinueOnError)
	switch f.Value.Type() {
	case "stringSlice":
		fs.StringSlice(f.Name, def, f.Usage)
	case "stringArray":
		fs.StringArray(f.Name, def, f.Usage)
	default:
		t.Fatalf("cannot reset flag %s of type %s", f.Name, f.Value.Type())
	}
	return fs.Lookup(f.Name).Value
}
