package kifconv_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kif2usi/pkg/kifconv"
)

var (
	fullWidthFiles = []string{"１", "２", "３", "４", "５", "６", "７", "８", "９"}
	kanjiRanks     = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}
)

func TestResolveExamples(t *testing.T) {
	r := kifconv.NewResolver()

	move, err := r.Resolve("52 ７六歩(77)")
	require.NoError(t, err)
	assert.Equal(t, "7g7f", move.USI())
	assert.Equal(t, kifconv.Relocation, move.Kind)
	assert.Equal(t, kifconv.Pawn, move.Piece)
	assert.Equal(t, 52, move.Number)

	move, err = r.Resolve("49 ４五歩打")
	require.NoError(t, err)
	assert.Equal(t, "P*4e", move.USI())
	assert.Equal(t, kifconv.Drop, move.Kind)

	last, ok := r.LastDestination()
	require.True(t, ok)
	assert.Equal(t, "4e", last.String())
}

func TestResolveRepeatUsesLastDestination(t *testing.T) {
	r := kifconv.NewResolver()
	move, err := r.Resolve("51 ２二歩成(23)")
	require.NoError(t, err)
	assert.Equal(t, "2c2b+", move.USI())

	move, err = r.Resolve("52 同桂(31)")
	require.NoError(t, err)
	assert.Equal(t, "3a2b", move.USI())
	assert.Equal(t, kifconv.Repeat, move.Kind)
	assert.Equal(t, kifconv.Knight, move.Piece)

	move, err = r.Resolve("53 同　飛(28)")
	require.NoError(t, err)
	assert.Equal(t, "2h2b", move.USI())
}

func TestResolveRepeatWithoutPredecessor(t *testing.T) {
	r := kifconv.NewResolver()
	_, err := r.Resolve("1 同　歩(77)")
	assert.ErrorIs(t, err, kifconv.ErrMissingRepeatContext)

	_, ok := r.LastDestination()
	assert.False(t, ok)
}

func TestResolveRelocationTokenShape(t *testing.T) {
	token := regexp.MustCompile(`^[1-9][a-i][1-9][a-i]\+?$`)
	r := kifconv.NewResolver()
	for fi, file := range fullWidthFiles {
		for ri, rank := range kanjiRanks {
			line := fmt.Sprintf("10 %s%s銀(%d%d)", file, rank, 9-fi, 9-ri)
			move, err := r.Resolve(line)
			require.NoError(t, err, line)
			assert.Regexp(t, token, move.USI(), line)
			assert.Equal(t, fmt.Sprintf("%d%c", fi+1, 'a'+ri), move.To.String())
			assert.Equal(t, fmt.Sprintf("%d%c", 9-fi, 'i'-ri), move.From.String())
		}
	}
}

func TestResolveDropTokenShape(t *testing.T) {
	token := regexp.MustCompile(`^[PLNSGBRK]\*[1-9][a-i]$`)
	pieces := map[string]string{
		"歩": "P", "香": "L", "桂": "N", "銀": "S", "金": "G", "角": "B", "飛": "R", "玉": "K",
	}
	r := kifconv.NewResolver()
	for name, letter := range pieces {
		for fi, file := range fullWidthFiles {
			for ri, rank := range kanjiRanks {
				line := fmt.Sprintf("20 %s%s%s打", file, rank, name)
				move, err := r.Resolve(line)
				require.NoError(t, err, line)
				assert.Regexp(t, token, move.USI(), line)
				assert.Equal(t, fmt.Sprintf("%s*%d%c", letter, fi+1, 'a'+ri), move.USI())
			}
		}
	}
}

func TestResolvePromotionMarker(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: "21 ２二角成(88)", want: "8h2b+"},
		{line: "21 ２二角(88)", want: "8h2b"},
		{line: "21 ２二角不成(88)", want: "8h2b+"},
		{line: "73 ７三桂不成(85)", want: "8e7c+"},
		{line: "21 ２二成銀(31)", want: "3a2b+"},
		{line: "21 ２二馬(88)", want: "8h2b"},
		{line: "21 ２二竜(28)", want: "2h2b"},
		{line: "21 ５三(55)", want: "5e5c"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			move, err := kifconv.NewResolver().Resolve(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, move.USI())
		})
	}
}

func TestResolveRepeatPromotion(t *testing.T) {
	r := kifconv.NewResolver()
	_, err := r.Resolve("30 ３三歩(34)")
	require.NoError(t, err)

	move, err := r.Resolve("31 同　角成(88)")
	require.NoError(t, err)
	assert.Equal(t, "8h3c+", move.USI())
	assert.Equal(t, kifconv.Bishop, move.Piece)

	move, err = r.Resolve("32 同　桂不成(21)")
	require.NoError(t, err)
	assert.Equal(t, "2a3c+", move.USI())
	assert.Equal(t, kifconv.Knight, move.Piece)
}

func TestResolveReducesPromotedPieces(t *testing.T) {
	tests := []struct {
		line  string
		piece kifconv.Piece
	}{
		{line: "40 ４五成香打", piece: kifconv.Lance},
		{line: "40 ４五成桂打", piece: kifconv.Knight},
		{line: "40 ４五成銀打", piece: kifconv.Silver},
		{line: "40 ４五竜打", piece: kifconv.Rook},
		{line: "40 ４五龍打", piece: kifconv.Rook},
		{line: "40 ４五馬打", piece: kifconv.Bishop},
		{line: "40 ４五と(46)", piece: kifconv.Pawn},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			move, err := kifconv.NewResolver().Resolve(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.piece, move.Piece)
		})
	}

	r := kifconv.NewResolver()
	_, err := r.Resolve("41 ５五歩(56)")
	require.NoError(t, err)
	move, err := r.Resolve("42 同　成桂(67)")
	require.NoError(t, err)
	assert.Equal(t, kifconv.Knight, move.Piece)
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{line: "1 ０六歩(77)", want: kifconv.ErrUnknownCoordinate},
		{line: "1 ７〇歩(77)", want: kifconv.ErrUnknownCoordinate},
		{line: "1 ７六歩(07)", want: kifconv.ErrUnknownCoordinate},
		{line: "1 ７六歩(70)", want: kifconv.ErrUnknownCoordinate},
		{line: "1 ４五猫打", want: kifconv.ErrUnknownPiece},
		{line: "1 ４五打", want: kifconv.ErrUnknownPiece},
		{line: "1 ７六猫(77)", want: kifconv.ErrUnknownPiece},
		{line: "1 7六歩(77)", want: kifconv.ErrMalformedMoveBody},
		{line: "x ７六歩(77)", want: kifconv.ErrMalformedMoveBody},
		{line: "1 パス", want: kifconv.ErrMalformedMoveBody},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := kifconv.NewResolver().Resolve(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveFailureKeepsLastDestination(t *testing.T) {
	r := kifconv.NewResolver()
	_, err := r.Resolve("1 ７六歩(77)")
	require.NoError(t, err)

	_, err = r.Resolve("2 ４五猫打")
	require.Error(t, err)

	move, err := r.Resolve("3 同　銀(78)")
	require.NoError(t, err)
	assert.Equal(t, "7h7f", move.USI())

	r.Reset()
	_, ok := r.LastDestination()
	assert.False(t, ok)
}
