// Command baw crawls an AX.25/NET-ROM packet-radio network, discovering
// and recording the neighbour tables of every reachable station.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/config"
	"github.com/n0call/baw/internal/consolesink"
	"github.com/n0call/baw/internal/crawler"
)

// version is set at release time; "dev" otherwise.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	showBanner()

	cfg, err := config.Parse(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "invalid command line:")
		bawerr.PrintTrace(os.Stderr, err)
		return 1
	}

	sink := consolesink.NewStdio()

	c, err := crawler.New(crawler.Config{
		StatePath:     cfg.StatePath,
		LocalCallsign: cfg.LocalCallsign,
		Threads:       cfg.Threads,
	}, sink)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start:")
		bawerr.PrintTrace(os.Stderr, err)
		return 1
	}
	defer c.Close()

	if err := c.Run(os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, "crawl failed:")
		bawerr.PrintTrace(os.Stderr, err)
		return 1
	}

	return 0
}

func showBanner() {
	fmt.Printf("%s V%s\n", config.ApplicationName, version)
	fmt.Println("AX.25/Netrom network discovery tool")
	fmt.Println()
}
