package format

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.MIME.Encoding(strings.ToLower(charset))
	if err != nil {
		return nil, fmt.Errorf("ianaindex.MIME.Encoding(%s) failed: %w", charset, err)
	}
	if enc == nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// DecodeHeader decodes RFC 2047 encoded words in any charset known to the
// IANA index. On failure the raw value is returned with the error.
func DecodeHeader(header string) (string, error) {
	decoded, err := wordDecoder.DecodeHeader(header)
	if err != nil {
		return header, fmt.Errorf("DecodeHeader failed: %w", err)
	}
	return decoded, nil
}
