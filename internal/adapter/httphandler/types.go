package httphandler

type (
	DraftView struct {
		SessionID string      `json:"session_id"`
		Name      string      `json:"name"`
		Price     string      `json:"price"`
		Image     string      `json:"image"`
		Category  string      `json:"category"`
		Sizes     []SizeCount `json:"sizes"`
	}

	SizeCount struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}
)

type OpenRequest struct {
	ProductID string `json:"product_id"`
}

// UpdateRequest carries field-level changes. Price stays raw text while
// the draft is open, it is parsed only at submission.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Price    *string `json:"price"`
	Category *string `json:"category"`
}

type StockRequest struct {
	Count string `json:"count"`
}

type Notice struct {
	Notice string `json:"notice"`
}
