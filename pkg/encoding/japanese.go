// Package encoding provides text encoding utilities for OBF name and path fields.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ShiftJISToUTF8 converts Shift-JIS encoded bytes to a UTF-8 string.
// Input that is already valid ASCII is returned unchanged; input that fails to
// decode is returned as-is.
func ShiftJISToUTF8(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToShiftJIS converts a UTF-8 string to Shift-JIS bytes.
// Returns the original bytes if conversion fails.
func UTF8ToShiftJIS(s string) []byte {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// UTF8 returns data as a string, replacing invalid sequences.
func UTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, _ := transform.Bytes(unicode.UTF8.NewDecoder(), data)
	return string(result)
}

// Decoder returns the byte-to-string function for a named encoding.
// Accepted names: "shift-jis" (also "sjis", "shift_jis"), "euc-jp", "utf-8".
func Decoder(name string) (func([]byte) string, error) {
	switch strings.ToLower(name) {
	case "", "shift-jis", "shift_jis", "sjis":
		return ShiftJISToUTF8, nil
	case "euc-jp", "eucjp":
		return decoderFor(japanese.EUCJP), nil
	case "utf-8", "utf8":
		return UTF8, nil
	default:
		return nil, fmt.Errorf("unknown string encoding %q", name)
	}
}

func decoderFor(enc encoding.Encoding) func([]byte) string {
	return func(data []byte) string {
		if isASCII(data) {
			return string(data)
		}
		result, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return string(data)
		}
		return string(result)
	}
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// UTF8ToFixedString converts a UTF-8 string to a fixed-size Shift-JIS byte
// array, padded with NUL bytes. Longer input is truncated.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, UTF8ToShiftJIS(s))
	return result
}
