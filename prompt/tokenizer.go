package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// modelEncodings maps model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// TiktokenCounter counts tokens with the tiktoken encoding of an
// OpenAI-family model. The encoding is initialized lazily on first use
// because it may download data.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenCounter creates a counter for the given model. Unknown
// models fall back to cl100k_base after a prefix match attempt.
func NewTiktokenCounter(model string) *TiktokenCounter {
	encoding, ok := modelEncodings[model]
	if !ok {
		// Longest-prefix match so "gpt-4o-..." resolves via "gpt-4o",
		// not "gpt-4".
		best := ""
		for prefix, e := range modelEncodings {
			if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
				best, encoding, ok = prefix, e, true
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens implements TokenCounter.
func (t *TiktokenCounter) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}
