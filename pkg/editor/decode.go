package editor

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"
)

// Common errors
var (
	ErrEmptyDocument = errors.New("document is empty")
)

// DecodeDocument converts document bytes to UTF-8. A UTF-8 byte order mark
// is stripped and UTF-16 (LE or BE, with or without BOM) is transcoded.
// Anything else is returned unchanged.
func DecodeDocument(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		data = data[3:]
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		data = decodeUTF16(data[2:], false)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		data = decodeUTF16(data[2:], true)
	case utf8.Valid(data):
		// plain UTF-8
	case len(data)%2 == 0 && nullRatio(data, 1):
		data = decodeUTF16(data, false)
	case len(data)%2 == 0 && nullRatio(data, 0):
		data = decodeUTF16(data, true)
	}

	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	return data, nil
}

// nullRatio reports whether more than a third of the bytes at the given
// parity are zero, which is how ASCII text looks in UTF-16.
func nullRatio(data []byte, start int) bool {
	nulls := 0
	for i := start; i < len(data); i += 2 {
		if data[i] == 0 {
			nulls++
		}
	}
	return nulls > len(data)/2/3
}

func decodeUTF16(data []byte, bigEndian bool) []byte {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16s := make([]uint16, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		if bigEndian {
			u16s = append(u16s, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			u16s = append(u16s, uint16(data[i])|uint16(data[i+1])<<8)
		}
	}

	return []byte(string(utf16.Decode(u16s)))
}
