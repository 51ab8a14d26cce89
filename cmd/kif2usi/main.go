// Command kif2usi converts one kifu file into a USI "position startpos moves"
// line and writes it to the output path.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"kif2usi/pkg/kifconv"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: nearest config.json, if any)")
	input := flag.String("input", "", "input kifu file (overrides config)")
	output := flag.String("output", "", "output position file (overrides config)")
	flag.Parse()

	cfg, _, err := kifconv.ResolveConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *output != "" {
		cfg.Output = *output
	}

	result, err := kifconv.ConvertFile(cfg.Input)
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "skipped %v\n", issue)
	}
	if err != nil {
		if errors.Is(err, kifconv.ErrEmptyResult) {
			fmt.Fprintf(os.Stderr, "no moves converted from %s\n", cfg.Input)
			os.Exit(2)
		}
		fatal(err)
	}
	if err := kifconv.WritePosition(cfg.Output, result); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "converted %d moves to %s\n", len(result.Moves), cfg.Output)
	fmt.Println(result.PositionCommand())
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
