// Package encoding converts the EUC-KR fixed-width name fields found in
// RSM files.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// DecodeName turns a NUL-padded EUC-KR field into a UTF-8 string.
// Invalid sequences decode to U+FFFD.
func DecodeName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), field)
	if err != nil {
		return string(field)
	}
	return string(out)
}

// EncodeName writes s as EUC-KR into a NUL-padded field of size bytes,
// truncating long names. Names with no EUC-KR form are copied as UTF-8.
func EncodeName(s string, size int) []byte {
	field := make([]byte, size)
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		out = []byte(s)
	}
	copy(field, out)
	return field
}
