// Command batch converts every kifu file under a directory and stores one row
// per file in a parquet table. Files are converted in parallel; each file gets
// its own conversion pass.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"kif2usi/pkg/kifconv"
)

func main() {
	inputDir := flag.String("input", "kifs", "input directory for kifu files")
	outputPath := flag.String("output", "conversions.parquet", "output parquet file")
	positionsDir := flag.String("positions", "", "also write one position file per game into this directory")
	processNum := flag.Int("process-num", 1, "number of parallel workers")
	flag.Parse()

	files, err := kifconv.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no kifu files found in %s", *inputDir))
	}
	workers := *processNum
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	runID := uuid.NewString()
	fmt.Fprintf(os.Stderr, "run %s: files: %d, workers: %d\n", runID, len(files), workers)

	jobs := make(chan string)
	results := make(chan kifconv.ConversionRecord, workers)
	writeErr := make(chan error, 1)
	var writeWg sync.WaitGroup
	writeWg.Add(1)
	go func() {
		defer writeWg.Done()
		writeErr <- kifconv.WriteParquet(*outputPath, results, int64(workers))
	}()

	var empty, failed int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				gameID := kifconv.GameID(*inputDir, path)
				result, err := kifconv.ConvertFile(path)
				switch {
				case errors.Is(err, kifconv.ErrEmptyResult):
					atomic.AddInt64(&empty, 1)
					fmt.Fprintf(os.Stderr, "no moves in %s: %d issues\n", path, len(result.Issues))
					results <- kifconv.NewConversionRecord(runID, gameID, result)
					continue
				case err != nil:
					atomic.AddInt64(&failed, 1)
					fmt.Fprintf(os.Stderr, "failed to convert %s: %v\n", path, err)
					continue
				}
				if *positionsDir != "" {
					out := filepath.Join(*positionsDir, positionFileName(gameID))
					if err := kifconv.WritePosition(out, result); err != nil {
						atomic.AddInt64(&failed, 1)
						fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", out, err)
						continue
					}
				}
				results <- kifconv.NewConversionRecord(runID, gameID, result)
			}
		}()
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)
	writeWg.Wait()
	if err := <-writeErr; err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "done: converted %d, empty %d, failed %d -> %s\n",
		int64(len(files))-empty-failed, empty, failed, *outputPath)
}

// positionFileName keeps the game's subdirectory so same-named kifu files in
// different directories get separate position files.
func positionFileName(gameID string) string {
	rel := filepath.FromSlash(gameID)
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".usi"
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
