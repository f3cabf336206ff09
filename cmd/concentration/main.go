// Command concentration reports whether an address is listed on a
// concentration workbook.
//
//	concentration -file remove.xlsx -state AL -city Selma -address "11 Bell Rd."
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"bekutils/internal/concentration"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "concentration:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("concentration", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "concentration workbook with an Addresses sheet (required)")
	state := fs.String("state", "", "state")
	city := fs.String("city", "", "city")
	address := fs.String("address", "", "street address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errors.New("missing required flag -file")
	}

	idx, err := concentration.Load(*file)
	if err != nil {
		return err
	}

	entry, ok := idx.Lookup(*state, *city, *address)
	fmt.Fprintf(stdout, "concentrated: %t\n", ok)
	fmt.Fprintf(stdout, "description:  %s\n", entry.Desc)
	fmt.Fprintf(stdout, "remove:       %s\n", entry.Remove)
	return nil
}
