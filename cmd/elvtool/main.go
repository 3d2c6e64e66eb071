// elvtool is a CLI utility for inspecting and generating ELV elevation tiles.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/Faultbox/topoview/internal/logger"
)

type Options struct {
	Debug bool `long:"debug" description:"Enable debug logging"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		level := "warn"
		if opts.Debug {
			level = "debug"
		}
		if err := logger.Init(level, ""); err != nil {
			return err
		}
		defer logger.Sync()
		return cmd.Execute(args)
	}

	mustAdd(parser.AddCommand("info",
		"Show tile information",
		"Decodes a tile file (.elv or .zip) and prints a JSON summary.",
		&infoCommand{}))
	mustAdd(parser.AddCommand("height",
		"Look up the elevation at a coordinate",
		"Prints the elevation of the grid point nearest to LAT,LON using the tiles in --tiles.\nPut -- before negative coordinates.",
		&heightCommand{}))
	mustAdd(parser.AddCommand("synth",
		"Write a synthetic tile",
		"Generates a flat or cone shaped tile covering LAT,LON, for tests and demos.\nPut -- before negative coordinates.",
		&synthCommand{}))

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAdd(_ *flags.Command, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
