package backend

import (
	"encoding/json"
	"fmt"
)

const proofreadPrompt = `You are an English proofreader and editor.
Your task is to correct spelling, grammar, and sentence fluency in the given list of texts.
You may improve clarity and naturalness, but you must NOT remove or omit any part of the original content.

### Instructions:
You are given a list of texts. Check and improve each text based on grammar, spelling, and readability,
while ensuring that NO content or elements from the original text are deleted or removed.

### Rules:
1. For each text in the input list:
   - Correct only grammar, spelling, and incorrect word usage.
   - Keep all spacing, line breaks ("\n"), and special symbols as they appear in the original.
2. Answer with JSON only, in the output format below.

### Notes:
- Do NOT add or remove any content, words, or symbols.
- Do NOT correct errors related to symbols or whitespace.

### Output format:
{
  "data": [
    {
      "text_id": <int, id of the input text>,
      "status": <bool, false if any issue was found and fixed, true if there were no errors>,
      "fixed_text": <string, corrected text>,
      "original_text": <string, original input text>
    }
  ]
}

### Input:
%s
`

type promptItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// buildPrompt renders the proofreading prompt for a batch. Texts are
// numbered from 1.
func buildPrompt(batch []string) (string, error) {
	items := make([]promptItem, len(batch))
	for i, text := range batch {
		items[i] = promptItem{ID: i + 1, Text: text}
	}
	input, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch: %w", err)
	}
	return fmt.Sprintf(proofreadPrompt, input), nil
}
