package kifconv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const positionPrefix = "position startpos moves "

// Result is the outcome of one conversion pass.
type Result struct {
	Moves    []string
	Issues   []*LineError
	Terminal string
	// Lines is the number of input lines read, including the terminal line.
	Lines int
}

// PositionCommand returns the USI position command for the converted moves.
func (r Result) PositionCommand() string {
	return positionPrefix + strings.Join(r.Moves, " ")
}

// Convert runs one conversion pass over kifu lines. Failing lines are recorded
// in Issues and skipped; reading stops at the game-end line.
func Convert(lines []string) Result {
	var result Result
	resolver := NewResolver()
	for i, line := range lines {
		result.Lines = i + 1
		original := strings.TrimSpace(line)
		if original == "" {
			continue
		}
		if IsGameEnd(original) {
			result.Terminal = original
			break
		}
		raw, ok := NormalizeLine(original)
		if !ok {
			result.Issues = append(result.Issues, &LineError{Line: i + 1, Text: original, Err: ErrNoMoveBody})
			continue
		}
		if isTerminalBody(raw.Body) {
			result.Terminal = original
			break
		}
		move, err := resolver.Resolve(raw.String())
		if err != nil {
			result.Issues = append(result.Issues, &LineError{Line: i + 1, Text: raw.String(), Err: err})
			continue
		}
		result.Moves = append(result.Moves, move.USI())
	}
	return result
}

// ConvertFile converts the kifu file at path. It returns ErrEmptyResult,
// together with the result, when no move could be converted.
func ConvertFile(path string) (Result, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}
	result := Convert(lines)
	if len(result.Moves) == 0 {
		return result, fmt.Errorf("%w in %s", ErrEmptyResult, path)
	}
	return result, nil
}

func readKIFLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decodeKIF(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

func decodeKIF(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

// WritePosition writes the position command for r to path, creating the
// parent directory if needed. Nothing is written for an empty result.
func WritePosition(path string, r Result) error {
	if len(r.Moves) == 0 {
		return ErrEmptyResult
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(r.PositionCommand()), 0o644)
}

// ReadPosition returns the first line of a converted file.
func ReadPosition(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := ""
	if scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(line, "position") {
		return "", fmt.Errorf("%w: %q", ErrNotPosition, line)
	}
	return line, nil
}

var kifExts = map[string]bool{".kif": true, ".kifu": true, ".txt": true}

// CollectKIF returns the sorted kifu files under root.
func CollectKIF(root string) ([]string, error) {
	var files []string
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if kifExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
