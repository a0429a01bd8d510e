// Package config parses the command line described in spec.md §6 into a
// validated Config, in the idiom of jessevdk/go-flags struct tags rather
// than the original's hand-rolled switch-processing loop.
package config

import (
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/recfmt"
)

// ApplicationName is printed by the startup banner (cmd/baw) and in usage
// text, matching the original's Config::application_name.
const ApplicationName = "Buck Airwalker"

// DefaultStatePath is used when -f is not given.
const DefaultStatePath = "baw_state.bin"

// DefaultThreads is used when -j is not given.
const DefaultThreads = 1

// Config holds the parsed, validated command line.
type Config struct {
	Threads       int
	StatePath     string
	LocalCallsign string
}

// options is the raw struct go-flags populates; Parse validates and
// normalizes it into a Config.
type options struct {
	Help      bool   `short:"h" long:"help" description:"This help"`
	Threads   int    `short:"j" default:"1" description:"Max number of simultaneous parallel AX.25 connections"`
	StatePath string `short:"f" default:"baw_state.bin" description:"Path of state file to load and append node discoveries"`

	Positional struct {
		LocalCallsign string `positional-arg-name:"local-callsign"`
	} `positional-args:"yes"`
}

// ErrHelp is returned by Parse when -h/--help was given; the usage text
// has already been written to w. The caller should exit 0.
var ErrHelp = flags.ErrHelp

// Parse parses args (excluding the program name, as in os.Args[1:]) and
// writes usage text to w if -h/--help is present or parsing fails.
func Parse(args []string, w io.Writer) (*Config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	parser.Usage = "[-h|--help] [-j N] [-f PATH] <local-callsign>"

	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			writeUsage(w, parser)
			return nil, ErrHelp
		}
		writeUsage(w, parser)
		return nil, bawerr.Wrap(bawerr.InvalidConfig, err, "parsing command line")
	}
	if opts.Help {
		writeUsage(w, parser)
		return nil, ErrHelp
	}

	return validate(&opts)
}

func validate(opts *options) (*Config, error) {
	// go-flags already applies the "default" tag when a flag is absent;
	// a value of 0 here can only come from an explicit "-j 0".
	threads := opts.Threads
	if threads < 1 {
		return nil, bawerr.Wrap(bawerr.InvalidConfig, nil,
			fmt.Sprintf("thread count must be >= 1, got %d", threads))
	}

	statePath := opts.StatePath

	if opts.Positional.LocalCallsign == "" {
		return nil, bawerr.Wrap(bawerr.InvalidConfig, nil,
			"missing expected argument: local address or callsign for binding client sockets")
	}
	localCallsign, err := recfmt.NormalizeCallsign(opts.Positional.LocalCallsign)
	if err != nil {
		return nil, errors.WithMessage(err, "while parsing local-callsign")
	}

	return &Config{
		Threads:       threads,
		StatePath:     statePath,
		LocalCallsign: localCallsign,
	}, nil
}

func writeUsage(w io.Writer, parser *flags.Parser) {
	fmt.Fprintf(w, "Usage: %s %s\n\n", ApplicationName, parser.Usage)
	fmt.Fprintln(w, "	--help, -h		This help")
	fmt.Fprintln(w, "	-j <count>		Max number of simultaneous parallel AX.25 connections")
	fmt.Fprintln(w, "	-f <path>		Path of state file to load and append node discoveries")
	fmt.Fprintf(w, "					defaults to '%s'\n", DefaultStatePath)
	fmt.Fprintln(w, "	<local node>	Local address or callsign to use, typically the user's hyphenated callsign")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "On stdin, pipe or type a list of root nodes at which to begin querying, one callsign per line")
	fmt.Fprintln(w)
}
