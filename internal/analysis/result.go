package analysis

import (
	"encoding/json"
	"fmt"
)

// Item is one entry of an analysis section. Providers return either a bare
// string or a {title, detail} object; both decode into this type and it
// marshals back out in the same shape it arrived in.
type Item struct {
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail"`
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Title = ""
		i.Detail = s
		return nil
	}

	var obj struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("item is neither a string nor a title/detail object: %w", err)
	}
	i.Title = obj.Title
	i.Detail = obj.Detail
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	if i.Title == "" {
		return json.Marshal(i.Detail)
	}
	return json.Marshal(struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}{i.Title, i.Detail})
}

type Hypothesis struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	Rationale   string  `json:"rationale"`
}

// Result is the normalized five-section analysis. After Parse every field is
// a non-nil list, whatever the provider actually returned.
type Result struct {
	Observation        []Item       `json:"observation"`
	Connotation        []Item       `json:"connotation"`
	DecodingHypotheses []Hypothesis `json:"decoding_hypotheses"`
	Risks              []Item       `json:"risks"`
	EditSuggestions    []Item       `json:"edit_suggestions"`
}

type rawResult struct {
	Observation        json.RawMessage `json:"observation"`
	Connotation        json.RawMessage `json:"connotation"`
	DecodingHypotheses json.RawMessage `json:"decoding_hypotheses"`
	Risks              json.RawMessage `json:"risks"`
	EditSuggestions    json.RawMessage `json:"edit_suggestions"`
}

// Parse extracts the JSON object from a provider response and normalizes it.
// Models wrap output in markdown fences or chatter despite instructions, so
// everything outside the outermost braces is discarded. It fails only when no
// parseable object is present; individual malformed sections are coerced to
// empty lists instead.
func Parse(content string) (*Result, error) {
	jsonStr := content

	start := -1
	end := -1
	for i, c := range jsonStr {
		if c == '{' {
			start = i
			break
		}
	}
	for i := len(jsonStr) - 1; i >= 0; i-- {
		if jsonStr[i] == '}' {
			end = i + 1
			break
		}
	}
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	jsonStr = jsonStr[start:end]

	var raw rawResult
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis response: %w", err)
	}

	return normalize(raw), nil
}

func normalize(raw rawResult) *Result {
	res := &Result{
		Observation:        coerceItems(raw.Observation),
		Connotation:        coerceItems(raw.Connotation),
		DecodingHypotheses: coerceHypotheses(raw.DecodingHypotheses),
		Risks:              coerceItems(raw.Risks),
		EditSuggestions:    coerceItems(raw.EditSuggestions),
	}
	for i := range res.DecodingHypotheses {
		p := res.DecodingHypotheses[i].Probability
		if p < 0 {
			res.DecodingHypotheses[i].Probability = 0
		} else if p > 1 {
			res.DecodingHypotheses[i].Probability = 1
		}
	}
	return res
}

// coerceItems turns a raw field into a list, treating null, non-list values
// and unparseable elements as absent.
func coerceItems(raw json.RawMessage) []Item {
	items := []Item{}
	var elems []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &elems) != nil {
		return items
	}
	for _, e := range elems {
		var it Item
		if err := json.Unmarshal(e, &it); err == nil {
			items = append(items, it)
		}
	}
	return items
}

func coerceHypotheses(raw json.RawMessage) []Hypothesis {
	hyps := []Hypothesis{}
	var elems []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &elems) != nil {
		return hyps
	}
	for _, e := range elems {
		var h Hypothesis
		if err := json.Unmarshal(e, &h); err == nil {
			hyps = append(hyps, h)
		}
	}
	return hyps
}

// Clone returns a deep copy so stored results cannot be mutated through a
// snapshot handed to the rendering layer.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := &Result{
		Observation:        append([]Item{}, r.Observation...),
		Connotation:        append([]Item{}, r.Connotation...),
		DecodingHypotheses: append([]Hypothesis{}, r.DecodingHypotheses...),
		Risks:              append([]Item{}, r.Risks...),
		EditSuggestions:    append([]Item{}, r.EditSuggestions...),
	}
	return c
}
