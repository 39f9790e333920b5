package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tomaz/labelscan/internal/domain"
)

// Normalize converts a raw model reply into a schema-conformant LabelRecord.
//
// The model is not a contract-bound API: its reply may be pure JSON, JSON
// wrapped in a markdown code fence, or arbitrary prose. Normalize is total —
// every possible input text maps to some valid record and nothing escapes as
// a fault. On any parse failure the record carries the verbatim reply in
// ai_response and a human-readable reason in error, with all structured
// fields null and discount false.
func Normalize(raw string) (record *domain.LabelRecord) {
	// Last line of defense: an unexpected shape in the parsed object must
	// degrade to the fallback record, not crash the request.
	defer func() {
		if r := recover(); r != nil {
			record = fallbackRecord(raw, fmt.Sprintf("unexpected fault while normalizing reply: %v", r))
		}
	}()

	stripped := stripCodeFence(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return fallbackRecord(raw, fmt.Sprintf("failed to parse reply as JSON: %v", err))
	}
	if parsed == nil {
		// A bare JSON null parses without error but carries no fields.
		return fallbackRecord(raw, "reply is not a JSON object")
	}

	return &domain.LabelRecord{
		ProductName:         stringField(parsed, "product_name"),
		Price:               stringField(parsed, "price"),
		Unit:                stringField(parsed, "unit"),
		RegularPrice:        stringField(parsed, "regular_price"),
		Discount:            boolField(parsed, "discount"),
		DiscountDescription: stringField(parsed, "discount_description"),
		DiscountCalculation: stringField(parsed, "discount_calculation"),
		Weight:              stringField(parsed, "weight"),
	}
}

// stripCodeFence removes a surrounding markdown code fence, a decoration
// language models commonly wrap JSON in despite instructions. Text without a
// leading fence passes through unchanged.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	rest := trimmed[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		// Opening fence line may carry a language tag such as ```json.
		rest = rest[idx+1:]
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}

	rest = strings.TrimSpace(rest)
	if strings.HasSuffix(rest, "```") {
		rest = strings.TrimSpace(strings.TrimSuffix(rest, "```"))
	}
	return rest
}

func fallbackRecord(raw, reason string) *domain.LabelRecord {
	return &domain.LabelRecord{
		AIResponse: &raw,
		Error:      &reason,
	}
}

// stringField projects one key from the parsed object. Absent or null keys
// become nil; non-string scalars the model occasionally emits (a numeric
// price, a bare boolean) are rendered with their default formatting rather
// than rejected.
func stringField(obj map[string]interface{}, key string) *string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	s := fmt.Sprint(v)
	return &s
}

// boolField projects a boolean key; missing or non-boolean values are false.
func boolField(obj map[string]interface{}, key string) bool {
	v, ok := obj[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
