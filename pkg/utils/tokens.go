package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// CountTokens estimates the token cost of text for prompt budgeting.
func CountTokens(text string) (int, error) {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		return 0, err
	}

	return len(tkm.Encode(text, nil, nil)), nil
}

// TruncateTokens cuts text down to at most limit tokens. When the tokenizer
// is unavailable it falls back to a 4-chars-per-token approximation.
func TruncateTokens(text string, limit int) string {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		if len(text) > limit*4 {
			return text[:limit*4]
		}
		return text
	}

	tokens := tkm.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return tkm.Decode(tokens[:limit])
}
