package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// estimateTokens approximates total token usage locally when the service
// omits usage data. Returns 0 if the encoding cannot be loaded, preserving
// the default-0 rule.
func estimateTokens(messages []ChatMessage, completion string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return 0
	}

	total := 0
	for _, msg := range messages {
		total += len(encoding.Encode(msg.Content, nil, nil))
	}
	total += len(encoding.Encode(completion, nil, nil))
	return total
}
