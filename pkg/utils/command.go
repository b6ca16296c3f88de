package utils

import (
	"errors"
	"strings"
)

// SplitCommandLine splits a configured tool command such as
// `"/opt/Arduino CLI/arduino-cli" --log-level warn` into arguments.
// Single and double quotes group words; a backslash escapes the next rune.
func SplitCommandLine(input string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	escaped := false
	quoted := false

	flush := func() {
		if current.Len() > 0 || quoted {
			args = append(args, current.String())
			current.Reset()
		}
		quoted = false
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			quoted = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escaped {
		return nil, errors.New("unfinished escape sequence in command")
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote in command")
	}
	flush()
	return args, nil
}
