package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// responseSchema describes the JSON object the model must return. The
// marshaled schema is embedded in the prompt so the contract lives in one
// place.
func responseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"operation": {
							Type:        "string",
							Description: "USE, ADD, or UNSURE",
						},
						"possible_product_name": {
							Type:        "string",
							Description: "extracted medication or product name, or UNSURE",
						},
						"quantity": {
							Type:        "string",
							Description: "numeric quantity as a string, or UNSURE",
						},
						"notes": {
							Type:        "string",
							Description: "user-friendly error message when any field is UNSURE, otherwise empty",
						},
					},
					Required: []string{"operation", "possible_product_name", "quantity", "notes"},
				},
			},
		},
		Required: []string{"items"},
	}
}

// NewPrompt renders the extraction prompt for one transcribed command.
func NewPrompt(text string) (string, error) {
	schemaJSON, err := json.Marshal(responseSchema())
	if err != nil {
		return "", fmt.Errorf("failed to marshal response schema: %w", err)
	}
	return fmt.Sprintf(extractionPrompt, text, string(schemaJSON)), nil
}

const extractionPrompt = `You are an expert AI assistant that analyzes transcribed text to determine inventory operations and extract product information.
The transcribed text is enclosed in <text>. Your task is to return a JSON response with a single field "items" containing an array of objects.

<text>
%s
</text>

Analyze the text and identify ALL medications or products mentioned. For each product found, determine:

1. "operation": Which operation the user wants to perform (USE, ADD)
   - ADD: Adding new items, creating records, inserting data
   - USE: Updating usage of existing items, updating records, updating data

2. "possible_product_name": Extract the medication or product name

3. "quantity": Extract any quantity, amount, or number mentioned. Always use numeric values (convert words like "one", "two" to "1", "2", etc.)

4. "notes": Provide a user-friendly error message when any field is UNSURE, otherwise an empty string

If you are unsure about any field, return "UNSURE" as the value and explain the issue in "notes".

The response must conform to this JSON Schema:
%s

CRITICAL RULES:
- Return ONLY valid JSON, no other text or explanations
- Always wrap results in an "items" array, even for a single product
- Create separate objects for each distinct product mentioned
- If multiple products share the same quantity (e.g., "I used one Tylenol and Advil"), apply that quantity to each product
- Convert word numbers to digits (one to 1, two to 2, etc.)

Example:
Input: "I used one Tylenol and Advil"
Output:
{
    "items": [
        {
            "operation": "USE",
            "possible_product_name": "Tylenol",
            "quantity": "1",
            "notes": ""
        },
        {
            "operation": "USE",
            "possible_product_name": "Advil",
            "quantity": "1",
            "notes": ""
        }
    ]
}
`
