// Command obiadmit is the admission engine's CLI: a thin flag-based
// dispatcher over the engine package, modeled on xdao-catf's run(args, out,
// errOut) int shape so the exit-code contract stays testable without
// touching os.Exit directly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/obinexus/obiengine/engine"
	"github.com/obinexus/obiengine/ir"
	"github.com/obinexus/obiengine/rejection"
	"github.com/obinexus/obiengine/specexport"
	"github.com/obinexus/obiengine/uscn"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	switch args[0] {
	case "admit":
		return cmdAdmit(args[1:], out, errOut)
	case "normalize":
		return cmdNormalize(args[1:], out, errOut)
	case "export-spec":
		return cmdExportSpec(args[1:], out, errOut)
	case "equivalent":
		return cmdEquivalent(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "obiadmit: protocol admission engine CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  obiadmit admit [--lenient] <file>")
	fmt.Fprintln(w, "  obiadmit normalize <file>")
	fmt.Fprintln(w, "  obiadmit export-spec [--format yaml|json] [--lenient]")
	fmt.Fprintln(w, "  obiadmit equivalent <file-a> <file-b>")
}

func cmdAdmit(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("admit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var lenient bool
	fs.BoolVar(&lenient, "lenient", false, "disable strict Zero-Trust posture")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: obiadmit admit [--lenient] <file>")
		return 2
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}

	eng, err := engine.NewDefault(!lenient)
	if err != nil {
		fmt.Fprintf(errOut, "engine init: %v\n", err)
		return 1
	}

	result, admitErr := eng.Admit(raw)
	if admitErr != nil {
		log.Warn().Err(admitErr).Str("reason", string(rejection.ReasonOf(admitErr))).
			Int("position", rejection.PositionOf(admitErr)).Msg("admission rejected")
		fmt.Fprintf(errOut, "rejected: %v\n", admitErr)
		return 1
	}

	if result.Warned {
		log.Warn().Float64("cost", result.Cost).Msg("admission crossed into the warning zone")
	}
	_, _ = out.Write(ir.Render(result.Stream, result.Cost))
	return 0
}

func cmdNormalize(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: obiadmit normalize <file>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}
	buf, nerr := uscn.Normalize(raw, uscn.DefaultConfig())
	if nerr != nil {
		fmt.Fprintf(errOut, "normalize: %v\n", nerr)
		return 1
	}
	fmt.Fprintf(errOut, "origin-hash: %s\n", buf.OriginHash)
	_, _ = out.Write(buf.Bytes)
	return 0
}

func cmdExportSpec(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("export-spec", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var format string
	var lenient bool
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&lenient, "lenient", false, "disable strict Zero-Trust posture")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	eng, err := engine.NewDefault(!lenient)
	if err != nil {
		fmt.Fprintf(errOut, "engine init: %v\n", err)
		return 1
	}
	b, eerr := specexport.Export(eng.ExportSpec(), specexport.Format(format))
	if eerr != nil {
		fmt.Fprintf(errOut, "export-spec: %v\n", eerr)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}

func cmdEquivalent(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("equivalent", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(errOut, "usage: obiadmit equivalent <file-a> <file-b>")
		return 2
	}
	a, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}
	b, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(1), err)
		return 1
	}
	if uscn.Equivalent(a, b) {
		fmt.Fprintln(out, "equivalent")
		return 0
	}
	fmt.Fprintln(out, "not equivalent")
	return 1
}
