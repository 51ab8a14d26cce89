package kifconv

import (
	"strings"

	"golang.org/x/text/width"
)

// RawLine is one kifu line reduced to its move number and move body.
type RawLine struct {
	Number string
	Body   string
}

// String joins the number and body the way the resolver grammars expect them.
func (l RawLine) String() string {
	return l.Number + " " + l.Body
}

// Game-end markers matched against the untouched line.
const (
	markerRecordedResult = "まで"
	markerResign         = "投了"
)

// IsGameEnd reports whether the line closes the game record.
func IsGameEnd(line string) bool {
	return strings.Contains(line, markerRecordedResult) || strings.Contains(line, markerResign)
}

func isTerminalBody(body string) bool {
	switch body {
	case "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

// NormalizeLine splits a raw kifu line into move number and move body.
// Elapsed-time annotations such as "(0:02/00:01:17)" and everything after them
// are dropped. It returns false when the line carries no move body.
func NormalizeLine(line string) (RawLine, bool) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return RawLine{}, false
	}
	segments := parts[1:]
	for i := range segments {
		segments[i] = narrowBrackets(segments[i])
	}
	var body strings.Builder
	for i, part := range segments {
		if isElapsedTime(part) {
			break
		}
		// "( 0:01/00:00:01)" splits the bracket from the time.
		if part == "(" && i+1 < len(segments) && hasColon(segments[i+1]) {
			break
		}
		body.WriteString(part)
	}
	if body.Len() == 0 {
		return RawLine{}, false
	}
	return RawLine{Number: parts[0], Body: body.String()}, true
}

func isElapsedTime(segment string) bool {
	return strings.Contains(segment, "(") && hasColon(segment)
}

func hasColon(segment string) bool {
	return strings.ContainsAny(segment, ":：")
}

// narrowBrackets folds full-width parentheses only; full-width digits are the
// destination file alphabet and must survive.
func narrowBrackets(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '（' || r == '）' {
			return width.LookupRune(r).Narrow()
		}
		return r
	}, s)
}
