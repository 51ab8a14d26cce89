// Command stats summarizes conversions, either from a batch parquet table or
// by converting a directory of kifu files directly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kif2usi/pkg/kifconv"
)

type moveStats struct {
	binSize int
	games   int
	moves   int
	issues  int
	empty   int
	bins    map[int]int
}

func newMoveStats(binSize int) *moveStats {
	return &moveStats{binSize: binSize, bins: make(map[int]int)}
}

func (ms *moveStats) Add(moveCount, issueCount int) {
	ms.games++
	ms.moves += moveCount
	ms.issues += issueCount
	if moveCount == 0 {
		ms.empty++
		return
	}
	binStart := (moveCount / ms.binSize) * ms.binSize
	ms.bins[binStart]++
}

var issueKinds = []struct {
	name string
	err  error
}{
	{"no move body", kifconv.ErrNoMoveBody},
	{"malformed move", kifconv.ErrMalformedMoveBody},
	{"unknown coordinate", kifconv.ErrUnknownCoordinate},
	{"unknown piece", kifconv.ErrUnknownPiece},
	{"missing same-square context", kifconv.ErrMissingRepeatContext},
}

func main() {
	kifDir := flag.String("kif-dir", "", "input directory for kifu files")
	parquetPath := flag.String("parquet", "", "input parquet file written by batch")
	binSize := flag.Int("bin-size", 20, "move count bin size")
	flag.Parse()

	if *binSize <= 0 {
		fatal(fmt.Errorf("bin-size must be > 0"))
	}
	if (*kifDir == "") == (*parquetPath == "") {
		fatal(fmt.Errorf("specify exactly one of -kif-dir or -parquet"))
	}

	stats := newMoveStats(*binSize)
	issueCounts := make(map[string]int)
	runs := make(map[string]struct{})
	failed := 0

	if *parquetPath != "" {
		path, err := filepath.Abs(*parquetPath)
		if err != nil {
			fatal(err)
		}
		records, err := kifconv.ReadParquet(path, 4)
		if err != nil {
			fatal(err)
		}
		for _, record := range records {
			runs[record.RunID] = struct{}{}
			stats.Add(int(record.MoveCount), int(record.IssueCount))
		}
		fmt.Printf("input parquet: %s\n", *parquetPath)
		fmt.Printf("runs: %d\n", len(runs))
	} else {
		files, err := kifconv.CollectKIF(*kifDir)
		if err != nil {
			fatal(err)
		}
		if len(files) == 0 {
			fatal(fmt.Errorf("no kifu files found in %s", *kifDir))
		}
		for _, path := range files {
			result, err := kifconv.ConvertFile(path)
			if err != nil && !errors.Is(err, kifconv.ErrEmptyResult) {
				fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
				failed++
				continue
			}
			stats.Add(len(result.Moves), len(result.Issues))
			for _, issue := range result.Issues {
				issueCounts[issueKind(issue)]++
			}
		}
		fmt.Printf("kif dir: %s\n", *kifDir)
		fmt.Printf("failed files: %d\n", failed)
	}

	fmt.Printf("games: %d (empty=%d)\n", stats.games, stats.empty)
	fmt.Printf("moves: %d\n", stats.moves)
	fmt.Printf("skipped lines: %d\n", stats.issues)
	for _, kind := range issueKinds {
		if n := issueCounts[kind.name]; n > 0 {
			fmt.Printf("  %s: %d\n", kind.name, n)
		}
	}
	fmt.Printf("move count distribution (bin size=%d):\n", stats.binSize)
	keys := make([]int, 0, len(stats.bins))
	for key := range stats.bins {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, start := range keys {
		end := start + stats.binSize - 1
		fmt.Printf("%d-%d,%d\n", start, end, stats.bins[start])
	}
}

func issueKind(err error) string {
	for _, kind := range issueKinds {
		if errors.Is(err, kind.err) {
			return kind.name
		}
	}
	return "other"
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
