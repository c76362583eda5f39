package service

import (
	"github.com/pkoukk/tiktoken-go"
)

// estimateTokens approximates how many tokens text costs for model. When no
// tokenizer is available for the model (or the encoding files cannot be
// loaded) it falls back to the usual four-characters-per-token heuristic so
// version records always carry a size estimate.
func estimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(tke.Encode(text, nil, nil))
}
