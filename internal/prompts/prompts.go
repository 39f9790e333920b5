// Package prompts assembles the extraction prompt sent to the vision model.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomaz/labelscan/internal/domain"
)

// LabelSystemPrompt defines the role and output contract for label extraction.
const LabelSystemPrompt = `You are a supermarket price label analyst. You read a photo of a single retail shelf price label and return its details as a JSON object. Return only the JSON, with no markdown code fences and no commentary.`

// extractionFields enumerates the structured fields the model must emit,
// in the order they appear in the prompt.
var extractionFields = []struct {
	name string
	desc string
}{
	{"product_name", "The name of the product (string)."},
	{"price", "The effective price of the item (string)."},
	{"unit", "The unit of measure (e.g. kg, lb, each) if available (string)."},
	{"regular_price", "The regular (non-discounted) price if one is shown (string)."},
	{"discount", "true if the label advertises a discount or deal, false otherwise (boolean)."},
	{"discount_description", "The discount terms as printed, e.g. '2 for 5' (string)."},
	{"discount_calculation", "How the effective price follows from the deal, e.g. '15.90/2 = 7.95 each' (string)."},
	{"weight", "If the item is sold by weight, the weight value such as '100g' (string)."},
}

// BuildLabelPrompt produces the user prompt for one scan request. Caller
// hints and the reverse-geocoded address (may be empty) are appended as
// additional context; each is independently optional.
func BuildLabelPrompt(hints *domain.Hints, address string) string {
	var b strings.Builder

	b.WriteString("Analyze the image for supermarket price label details. Return a JSON object with these fields:\n")
	for _, f := range extractionFields {
		fmt.Fprintf(&b, " - `%s`: %s\n", f.name, f.desc)
	}

	if hints != nil {
		var context []string
		if hints.ShopName != "" {
			context = append(context, fmt.Sprintf("The shop name is '%s'.", hints.ShopName))
		}
		if address != "" {
			context = append(context, fmt.Sprintf("The location is at approximately '%s'.", address))
		}
		if hints.HasCoordinates() {
			context = append(context, fmt.Sprintf("GPS coordinates are Latitude: %v, Longitude: %v.", *hints.Latitude, *hints.Longitude))
		}
		if hints.DateTime != "" {
			if parsed, err := time.Parse(time.RFC3339, hints.DateTime); err == nil {
				context = append(context, fmt.Sprintf("Date and time is '%s'.", parsed.Format("2006-01-02 15:04:05")))
			} else {
				context = append(context, fmt.Sprintf("The user provided a date and time, but it was not valid: %s.", hints.DateTime))
			}
		}
		if hints.HintText != "" {
			context = append(context, fmt.Sprintf("The following hint was given: '%s'.", hints.HintText))
		}
		if len(context) > 0 {
			b.WriteString("\nAdditional context:\n")
			for _, line := range context {
				b.WriteString("- " + line + "\n")
			}
		}
	}

	b.WriteString("\nIf a field is not present or cannot be determined, use null for its value instead of leaving it out. If you are unsure of a value, still make your best guess.\n")
	b.WriteString("\nLook out for discounts and deals: typically there is a full price in large digits, sometimes crossed out, and a deal price such as 15.90/2 meaning 15.90 for 2, so the unit price is 7.95. In that case set discount to true, price to the effective unit price, and fill in the discount terms.\n")
	b.WriteString("\nReturn only the JSON.")

	return b.String()
}
