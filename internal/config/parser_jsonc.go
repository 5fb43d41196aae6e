package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload filePayload
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, locateJSONError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, locateJSONError(normalized, err)
	}

	return finish(payload, base)
}

// normalizeJSONC blanks comments and trailing commas in place, so decoder
// offsets still point at the user's original line and column.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	inString, escaped := false, false
	pendingComma := -1

	for i := 0; i < len(buf); i++ {
		ch := buf[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if ch == '/' && i+1 < len(buf) {
			switch buf[i+1] {
			case '/':
				end := i + 2
				for end < len(buf) && buf[end] != '\n' && buf[end] != '\r' {
					end++
				}
				blank(buf[i:end])
				i = end - 1
				continue
			case '*':
				closing := bytes.Index(buf[i+2:], []byte("*/"))
				if closing < 0 {
					line, col := offsetToLineCol(content, int64(i+1))
					return "", fmt.Errorf("line %d column %d: unterminated block comment in JSONC", line, col)
				}
				end := i + 2 + closing + 2
				blank(buf[i:end])
				i = end - 1
				continue
			}
		}

		if isJSONWhitespace(ch) {
			continue
		}
		if (ch == '}' || ch == ']') && pendingComma >= 0 {
			buf[pendingComma] = ' '
		}
		pendingComma = -1
		switch ch {
		case ',':
			pendingComma = i
		case '"':
			inString = true
		}
	}

	return string(buf), nil
}

// blank overwrites b with spaces, keeping line breaks and tabs.
func blank(b []byte) {
	for i, ch := range b {
		if ch != '\n' && ch != '\r' && ch != '\t' {
			b[i] = ' '
		}
	}
}

func isJSONWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

// locateJSONError prefixes syntax and type errors with their line and column.
func locateJSONError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// offsetToLineCol maps a decoder offset (bytes consumed) to the 1-based
// position of the last consumed byte.
func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	prefix := content[:max(min(int(offset), len(content))-1, 0)]
	line := 1 + strings.Count(prefix, "\n")
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}
