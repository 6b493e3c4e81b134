package medtracker

import (
	"context"
	"strings"

	"medtracker/inventory"
)

// Extractor turns free-form text into candidate inventory operations.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]CandidateOperation, error)
}

// CommandProcessor runs one text command end to end against the inventory store.
type CommandProcessor interface {
	Process(ctx context.Context, text string) (CommandResult, error)
}

// OperationKind is the strict form of the extraction service's operation field.
// Anything the service returns other than ADD/USE maps to OpUnrecognized.
type OperationKind string

const (
	OpAdd          OperationKind = "add"
	OpUse          OperationKind = "use"
	OpUnrecognized OperationKind = "unrecognized"
)

// ParseOperationKind normalizes the loosely-typed operation string from the
// extraction service. Matching is case-insensitive.
func ParseOperationKind(s string) OperationKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return OpAdd
	case "use":
		return OpUse
	default:
		return OpUnrecognized
	}
}

// CandidateOperation is one extracted instruction (add/use N of item X) before
// validation against live inventory. Immutable once produced.
type CandidateOperation struct {
	Kind        OperationKind `json:"kind"`
	ItemID      string        `json:"item_id,omitempty"` // empty when no inventory match
	ItemLabel   string        `json:"item_label"`
	RawQuantity string        `json:"raw_quantity"`
	Note        string        `json:"note,omitempty"`
}

// ResolvedMutation is a validated, store-ready quantity replacement.
type ResolvedMutation struct {
	ItemID         string `json:"item_id"`
	TargetQuantity int    `json:"target_quantity"`
}

// CommandResult is the unified report handed back to the caller: updated item
// snapshots for every mutation that persisted, plus one reason string per
// rejected candidate or failed write. Partial success is a first-class outcome.
type CommandResult struct {
	Success []inventory.Item `json:"success"`
	Errors  []string         `json:"errors"`
}

// Applied reports whether at least one item was updated.
func (r CommandResult) Applied() bool {
	return len(r.Success) > 0
}
