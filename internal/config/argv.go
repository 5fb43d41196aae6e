package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rbright/scriber/internal/intake"
)

// argvLexer splits a command line into arguments with shell-like quoting.
// Quotes delimit but never appear in output; "" yields an empty argument.
type argvLexer struct {
	args    []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (l *argvLexer) feed(r rune) {
	switch {
	case l.escaped:
		l.word.WriteRune(r)
		l.escaped = false
	case r == '\\' && l.quote != '\'':
		l.escaped = true
		l.inWord = true
	case l.quote != 0 && r == l.quote:
		l.quote = 0
	case l.quote != 0:
		l.word.WriteRune(r)
	case r == '"' || r == '\'':
		l.quote = r
		l.inWord = true
	case unicode.IsSpace(r):
		l.endWord()
	default:
		l.word.WriteRune(r)
		l.inWord = true
	}
}

func (l *argvLexer) endWord() {
	if !l.inWord {
		return
	}
	l.args = append(l.args, l.word.String())
	l.word.Reset()
	l.inWord = false
}

// parseArgv tokenizes a configured command. Blank and #-commented input
// disables the command.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var lexer argvLexer
	for _, r := range input {
		lexer.feed(r)
	}
	switch {
	case lexer.escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case lexer.quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	lexer.endWord()
	return lexer.args, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}

// hasPlaceholder reports whether any argument references the video path placeholder.
func hasPlaceholder(argv []string) bool {
	for _, arg := range argv {
		if strings.Contains(arg, intake.FilePlaceholder) {
			return true
		}
	}
	return false
}
