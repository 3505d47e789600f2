package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftJISRoundTrip(t *testing.T) {
	tests := []string{"body", "プリニー", "魔王城_01", ""}

	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			encoded := UTF8ToShiftJIS(s)
			assert.Equal(t, s, ShiftJISToUTF8(encoded))
		})
	}
}

func TestShiftJISASCIIPassthrough(t *testing.T) {
	assert.Equal(t, "tex/body.tx2", ShiftJISToUTF8([]byte("tex/body.tx2")))
}

func TestFixedString(t *testing.T) {
	field := UTF8ToFixedString("プリニー", 32)
	require.Len(t, field, 32)
	assert.Equal(t, byte(0), field[31])
	assert.Equal(t, "プリニー", ShiftJISToUTF8(bytes.TrimRight(field, "\x00")))

	short := UTF8ToFixedString("abcdef", 4)
	assert.Equal(t, []byte("abcd"), short)
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{"shift-jis", UTF8ToShiftJIS("剣"), "剣", false},
		{"SJIS", UTF8ToShiftJIS("剣"), "剣", false},
		{"", UTF8ToShiftJIS("剣"), "剣", false},
		{"utf-8", []byte("剣"), "剣", false},
		{"euc-jp", []byte("sword"), "sword", false},
		{"latin-9", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := Decoder(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec(tt.input))
		})
	}
}
