// Package keywords splits a free-text keyword string into search terms using
// POSIX shell quoting rules.
package keywords

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrMalformedInput reports unbalanced quoting or a dangling escape.
var ErrMalformedInput = errors.New("malformed keywords")

// Tokenize splits input into search terms. Whitespace outside quotes
// separates terms, quoted segments are kept literally without their quote
// characters, and backslash escapes follow shell lexing. Empty terms are
// dropped, so blank input yields an empty slice.
func Tokenize(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return []string{}, nil
	}

	words, err := shellquote.Split(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, describe(err))
	}

	terms := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		terms = append(terms, word)
	}
	return terms, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, shellquote.UnterminatedSingleQuoteError):
		return "no closing single quotation"
	case errors.Is(err, shellquote.UnterminatedDoubleQuoteError):
		return "no closing double quotation"
	case errors.Is(err, shellquote.UnterminatedEscapeError):
		return "no escaped character"
	default:
		return err.Error()
	}
}
