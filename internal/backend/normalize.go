package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// maxUnwrap bounds how many envelopes or JSON-in-string layers are peeled.
const maxUnwrap = 4

var errNoJSON = errors.New("no JSON found in response")

// sanitize strips markdown code fences and any junk before the first
// opening bracket and after the last closing bracket.
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// unwrap peels "text" and "data" envelopes, in any nesting order, and
// re-parses string values that hold JSON.
func unwrap(v gjson.Result) gjson.Result {
	for range maxUnwrap {
		switch {
		case v.Type == gjson.String:
			inner := sanitize(v.String())
			if inner == "" || !gjson.Valid(inner) {
				return v
			}
			v = gjson.Parse(inner)
		case v.IsObject() && v.Get("text").Exists():
			v = v.Get("text")
		case v.IsObject() && v.Get("data").Exists():
			v = v.Get("data")
		default:
			return v
		}
	}
	return v
}

// parseSuggestions turns a raw model response into one suggestion per input
// text. Every failure is fatal: asking again rarely repairs a malformed answer.
func parseSuggestions(raw string, batch []string) ([]core.Suggestion, error) {
	body := sanitize(raw)
	if body == "" {
		return nil, core.Fatal(errNoJSON)
	}
	if !gjson.Valid(body) {
		return nil, core.Fatal(fmt.Errorf("invalid JSON in response: %.80q", body))
	}

	items := unwrap(gjson.Parse(body))
	if !items.IsArray() {
		return nil, core.Fatal(fmt.Errorf("expected a JSON array of results, got %s", items.Type))
	}

	elems := items.Array()
	if len(elems) != len(batch) {
		return nil, core.Fatal(fmt.Errorf("response has %d results for %d texts", len(elems), len(batch)))
	}

	out := make([]core.Suggestion, len(batch))
	slots := order(elems, len(batch))
	for i, elem := range elems {
		if !elem.Get("fixed_text").Exists() {
			elem = unwrap(elem)
		}
		s, err := parseSuggestion(elem, batch[slots[i]])
		if err != nil {
			return nil, core.Fatal(fmt.Errorf("result %d: %w", i+1, err))
		}
		out[slots[i]] = s
	}
	return out, nil
}

// order maps each element to its input position. text_id is used when
// every element carries a distinct id in range; otherwise position wins.
func order(elems []gjson.Result, n int) []int {
	slots := make([]int, len(elems))
	seen := make([]bool, n)
	for i, elem := range elems {
		id := elem.Get("text_id")
		if !id.Exists() {
			id = elem.Get("id")
		}
		k := int(id.Int()) - 1
		if !id.Exists() || k < 0 || k >= n || seen[k] {
			return identity(len(elems))
		}
		seen[k] = true
		slots[i] = k
	}
	return slots
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func parseSuggestion(elem gjson.Result, input string) (core.Suggestion, error) {
	if !elem.IsObject() {
		return core.Suggestion{}, fmt.Errorf("expected an object, got %s", elem.Type)
	}

	fixed := elem.Get("fixed_text")
	if !fixed.Exists() {
		return core.Suggestion{}, errors.New("missing fixed_text")
	}

	s := core.Suggestion{
		FixedText:    fixed.String(),
		OriginalText: input,
	}
	if orig := elem.Get("original_text"); orig.Exists() {
		s.OriginalText = orig.String()
	}

	switch status := elem.Get("status"); status.Type {
	case gjson.True, gjson.False, gjson.Number:
		s.Status = status.Bool()
	case gjson.String:
		s.Status = strings.EqualFold(strings.TrimSpace(status.String()), "true")
	default:
		s.Status = strings.TrimSpace(s.FixedText) == strings.TrimSpace(s.OriginalText)
	}
	return s, nil
}
