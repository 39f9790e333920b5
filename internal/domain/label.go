package domain

// LabelRecord is the canonical result of scanning one shelf price label.
// Every field except Discount is optional; a nil pointer serializes as JSON
// null. Exactly one of two shapes is ever produced: a structured record
// (AIResponse and Error nil) or a fallback record where every structured
// field is nil, AIResponse carries the verbatim model reply, and Error
// explains why it could not be interpreted.
type LabelRecord struct {
	ProductName         *string `json:"product_name"`
	Price               *string `json:"price"`
	Unit                *string `json:"unit"`
	RegularPrice        *string `json:"regular_price"`
	Discount            bool    `json:"discount"`
	DiscountDescription *string `json:"discount_description"`
	DiscountCalculation *string `json:"discount_calculation"`
	Weight              *string `json:"weight"`
	AIResponse          *string `json:"ai_response"`
	Error               *string `json:"error"`
}

// IsFallback reports whether the record carries an uninterpreted model reply
// instead of structured fields.
func (r *LabelRecord) IsFallback() bool {
	return r.AIResponse != nil
}

// Hints carries optional caller-supplied context that enriches the prompt.
// Each field is independently optional; none is validated beyond type
// coercion at the HTTP boundary.
type Hints struct {
	ShopName  string
	Latitude  *float64
	Longitude *float64
	DateTime  string // ISO-8601, passed through best-effort
	HintText  string
}

// HasCoordinates reports whether both latitude and longitude were supplied.
func (h *Hints) HasCoordinates() bool {
	return h.Latitude != nil && h.Longitude != nil
}

// PreparedImage is a model-ready still image: square, edge length capped by
// configuration, always PNG. Immutable once produced.
type PreparedImage struct {
	Data []byte
	Edge int
}

// MIMEType returns the media type of the encoded image data.
func (p *PreparedImage) MIMEType() string {
	return "image/png"
}
