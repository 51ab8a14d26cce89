package kifconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kif2usi/pkg/kifconv"
)

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   kifconv.RawLine
		wantOK bool
	}{
		{
			name:   "elapsed time dropped",
			line:   "52 同　桂(31)        (0:02/00:01:17)",
			want:   kifconv.RawLine{Number: "52", Body: "同桂(31)"},
			wantOK: true,
		},
		{
			name:   "full-width time brackets",
			line:   "3 ２二角成(88)   （0:03/00:00:04）",
			want:   kifconv.RawLine{Number: "3", Body: "２二角成(88)"},
			wantOK: true,
		},
		{
			name:   "bracket split from time",
			line:   "   1 ７六歩(77)   ( 0:01/00:00:01)",
			want:   kifconv.RawLine{Number: "1", Body: "７六歩(77)"},
			wantOK: true,
		},
		{
			name:   "full-width source brackets",
			line:   "1 ７六歩（77）",
			want:   kifconv.RawLine{Number: "1", Body: "７六歩(77)"},
			wantOK: true,
		},
		{
			name:   "drop without time",
			line:   "49 ４五歩打",
			want:   kifconv.RawLine{Number: "49", Body: "４五歩打"},
			wantOK: true,
		},
		{
			name: "single segment",
			line: "手合割：平手",
		},
		{
			name: "blank",
			line: "   ",
		},
		{
			name: "only elapsed time",
			line: "12 (0:02/00:01:17)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := kifconv.NormalizeLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLineExcludesElapsedTime(t *testing.T) {
	got, ok := kifconv.NormalizeLine("52 ７六歩(77) (0:02/00:01:17)")
	assert.True(t, ok)
	assert.NotContains(t, got.Body, "0:02")
	assert.NotContains(t, got.Body, "00:01:17")
	assert.Equal(t, "52 ７六歩(77)", got.String())
}

func TestIsGameEnd(t *testing.T) {
	assert.True(t, kifconv.IsGameEnd("まで64手で後手の勝ち"))
	assert.True(t, kifconv.IsGameEnd("  65 投了"))
	assert.False(t, kifconv.IsGameEnd("52 ７六歩(77)"))
	assert.False(t, kifconv.IsGameEnd("手合割：平手"))
}
