// Package textenc resolves the configured output encoding name and handles
// reading and writing conversion artifacts in that encoding.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var encodings = map[string]encoding.Encoding{
	"utf-8":        xunicode.UTF8,
	"utf8":         xunicode.UTF8,
	"utf-16":       xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM),
	"utf-16le":     xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM),
	"utf-16be":     xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM),
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"gbk":          simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"shift-jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"euc-kr":       korean.EUCKR,
}

// Lookup maps an encoding name from the options to an x/text encoding.
func Lookup(name string) (encoding.Encoding, error) {
	enc, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported text encoding %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return enc, nil
}

// Names lists the supported encoding names, sorted for stable messages.
func Names() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile reads path and decodes it from the named encoding to UTF-8.
// Valid UTF-8 input is passed through regardless of the declared name, so a
// UTF-8 file with a latin-1 config does not get mangled.
func ReadFile(path, encodingName string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	// UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	enc, err := Lookup(encodingName)
	if err != nil {
		return "", err
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s as %s: %w", path, encodingName, err)
	}
	return string(decoded), nil
}

// Encode converts UTF-8 text to the named encoding.
func Encode(text, encodingName string) ([]byte, error) {
	enc, err := Lookup(encodingName)
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(transform.NewReader(strings.NewReader(text), enc.NewEncoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode text as %s: %w", encodingName, err)
	}
	return out, nil
}
