package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"medtracker"
)

// unsureValue is what the model is told to return for any field it cannot
// determine.
const unsureValue = "UNSURE"

// wireResponse is the loosely-typed shape the extraction prompt asks the model
// for. Quantity arrives as a string and operation as a free-form enum-like
// string; neither propagates past this package.
type wireResponse struct {
	Items *[]wireItem `json:"items"`
}

type wireItem struct {
	Operation           string `json:"operation"`
	PossibleProductName string `json:"possible_product_name"`
	Quantity            string `json:"quantity"`
	PossibleProductID   string `json:"possible_product_id,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// parseWireResponse decodes and shape-checks the model's JSON object.
func parseWireResponse(raw []byte) ([]wireItem, error) {
	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if resp.Items == nil {
		return nil, fmt.Errorf("missing items array in response")
	}
	for i, item := range *resp.Items {
		if item.Operation == "" || item.PossibleProductName == "" {
			return nil, fmt.Errorf("missing required fields in item %d", i)
		}
	}
	return *resp.Items, nil
}

// toCandidate converts one wire item to the strict domain form. The item id is
// whatever the resolver matched; empty means no inventory match.
func toCandidate(item wireItem, itemID string) medtracker.CandidateOperation {
	return medtracker.CandidateOperation{
		Kind:        medtracker.ParseOperationKind(item.Operation),
		ItemID:      itemID,
		ItemLabel:   item.PossibleProductName,
		RawQuantity: item.Quantity,
		Note:        item.Notes,
	}
}

// hasProductName reports whether the model actually named a product.
func (w wireItem) hasProductName() bool {
	name := strings.TrimSpace(w.PossibleProductName)
	return name != "" && !strings.EqualFold(name, unsureValue)
}
