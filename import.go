package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"puma/internal/back"
)

func importCSV(path string, importer func(io.Reader) (back.ImportResult, error)) error {
	if path == "" {
		return errors.New("missing CSV file path")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := importer(f)
	if err != nil {
		return err
	}

	for _, v := range res.Errors {
		log.Printf("warning: %s", v)
	}

	fmt.Fprintf(os.Stdout, "%d rows imported, %d skipped\n", res.Imported, res.Skipped)

	return nil
}
