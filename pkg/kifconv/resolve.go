package kifconv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Square struct {
	File int
	Rank int
}

// String returns the USI form, e.g. "7f".
func (s Square) String() string {
	return fmt.Sprintf("%d%c", s.File, rankToLetter(s.Rank))
}

func rankToLetter(rank int) byte {
	return byte('a' + rank - 1)
}

// Piece is the USI letter of an unpromoted piece.
type Piece string

const (
	Pawn   Piece = "P"
	Lance  Piece = "L"
	Knight Piece = "N"
	Silver Piece = "S"
	Gold   Piece = "G"
	Bishop Piece = "B"
	Rook   Piece = "R"
	King   Piece = "K"
)

type MoveKind int

const (
	Relocation MoveKind = iota
	Drop
	Repeat
)

func (k MoveKind) String() string {
	switch k {
	case Relocation:
		return "relocation"
	case Drop:
		return "drop"
	case Repeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Move is one resolved kifu move. Piece is empty when a relocation line omits it.
type Move struct {
	Number  int
	Kind    MoveKind
	From    Square
	To      Square
	Piece   Piece
	Promote bool
}

// USI renders the move as a USI move token.
func (m Move) USI() string {
	if m.Kind == Drop {
		return fmt.Sprintf("%s*%s", m.Piece, m.To)
	}
	usi := m.From.String() + m.To.String()
	if m.Promote {
		usi += "+"
	}
	return usi
}

var (
	relocationRe = regexp.MustCompile(`^(\d+)\s+([０-９])([〇一二三四五六七八九])([^()]*)\((\d)(\d)\)`)
	dropRe       = regexp.MustCompile(`^(\d+)\s+([０-９])([〇一二三四五六七八九])([^()]*)打`)
	repeatRe     = regexp.MustCompile(`^(\d+)\s+同[\s　]*([成不歩香桂銀金角飛玉王竜龍馬と]+)\((\d)(\d)\)`)
)

type grammar struct {
	re      *regexp.Regexp
	resolve func(text string, m []string, last *Square) (Move, error)
}

// Tried in order; the first matching grammar owns the line.
var grammars = []grammar{
	{re: relocationRe, resolve: resolveRelocation},
	{re: dropRe, resolve: resolveDrop},
	{re: repeatRe, resolve: resolveRepeat},
}

// Resolver converts normalized move lines into moves. It carries the
// destination of the last resolved move for same-square ("同") moves, so a
// Resolver belongs to exactly one conversion pass.
type Resolver struct {
	last *Square
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// LastDestination returns the destination of the last resolved move.
func (r *Resolver) LastDestination() (Square, bool) {
	if r.last == nil {
		return Square{}, false
	}
	return *r.last, true
}

func (r *Resolver) Reset() {
	r.last = nil
}

// Resolve classifies text ("<number> <body>") and resolves it into a move.
// The last destination is only updated on success.
func (r *Resolver) Resolve(text string) (Move, error) {
	for _, g := range grammars {
		m := g.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		move, err := g.resolve(text, m, r.last)
		if err != nil {
			return Move{}, err
		}
		dest := move.To
		r.last = &dest
		return move, nil
	}
	return Move{}, ErrMalformedMoveBody
}

func resolveRelocation(text string, m []string, _ *Square) (Move, error) {
	to, err := kanjiSquare(m[2], m[3])
	if err != nil {
		return Move{}, err
	}
	from, err := digitSquare(m[5], m[6])
	if err != nil {
		return Move{}, err
	}
	var piece Piece
	if name := reducePiece(m[4]); name != "" {
		if piece, err = pieceLetter(name); err != nil {
			return Move{}, err
		}
	}
	return Move{
		Number:  moveNumber(m[1]),
		Kind:    Relocation,
		From:    from,
		To:      to,
		Piece:   piece,
		Promote: promotes(text),
	}, nil
}

func resolveDrop(_ string, m []string, _ *Square) (Move, error) {
	to, err := kanjiSquare(m[2], m[3])
	if err != nil {
		return Move{}, err
	}
	piece, err := pieceLetter(reducePiece(m[4]))
	if err != nil {
		return Move{}, err
	}
	return Move{Number: moveNumber(m[1]), Kind: Drop, To: to, Piece: piece}, nil
}

func resolveRepeat(text string, m []string, last *Square) (Move, error) {
	if last == nil {
		return Move{}, ErrMissingRepeatContext
	}
	from, err := digitSquare(m[3], m[4])
	if err != nil {
		return Move{}, err
	}
	piece, err := pieceLetter(reducePiece(m[2]))
	if err != nil {
		return Move{}, err
	}
	return Move{
		Number:  moveNumber(m[1]),
		Kind:    Repeat,
		From:    from,
		To:      *last,
		Piece:   piece,
		Promote: promotes(text),
	}, nil
}

func moveNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

var (
	fileKanji = map[string]int{
		"１": 1, "２": 2, "３": 3, "４": 4, "５": 5, "６": 6, "７": 7, "８": 8, "９": 9,
	}
	rankKanji = map[string]int{
		"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6, "七": 7, "八": 8, "九": 9,
	}
	fileDigit = map[string]int{
		"1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	}
	rankDigit = fileDigit
)

func kanjiSquare(file, rank string) (Square, error) {
	return lookupSquare(fileKanji, rankKanji, file, rank)
}

func digitSquare(file, rank string) (Square, error) {
	return lookupSquare(fileDigit, rankDigit, file, rank)
}

func lookupSquare(files, ranks map[string]int, file, rank string) (Square, error) {
	f, ok := files[file]
	if !ok {
		return Square{}, fmt.Errorf("%w: file %q", ErrUnknownCoordinate, file)
	}
	r, ok := ranks[rank]
	if !ok {
		return Square{}, fmt.Errorf("%w: rank %q", ErrUnknownCoordinate, rank)
	}
	return Square{File: f, Rank: r}, nil
}

const promotionMarker = "成"

var promotedPieces = map[string]string{
	"成桂": "桂",
	"成銀": "銀",
	"成香": "香",
	"竜":  "飛",
	"龍":  "飛",
	"馬":  "角",
	"と":  "歩",
}

var pieceLetters = map[rune]Piece{
	'歩': Pawn,
	'香': Lance,
	'桂': Knight,
	'銀': Silver,
	'金': Gold,
	'角': Bishop,
	'飛': Rook,
	'玉': King,
	'王': King,
}

// reducePiece maps a kifu piece name to its unpromoted name.
func reducePiece(name string) string {
	if base, ok := promotedPieces[name]; ok {
		name = base
	}
	name = strings.ReplaceAll(name, "不"+promotionMarker, "")
	return strings.ReplaceAll(name, promotionMarker, "")
}

func pieceLetter(name string) (Piece, error) {
	r, _ := utf8.DecodeRuneInString(name)
	if piece, ok := pieceLetters[r]; ok {
		return piece, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPiece, name)
}

// promotes reports whether the line carries the promotion marker anywhere,
// including inside "不成".
func promotes(text string) bool {
	return strings.Contains(text, promotionMarker)
}
