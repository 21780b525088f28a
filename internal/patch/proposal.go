package patch

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Errors returned when constructing edits from a tool call.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingField     = errors.New("missing required field")
	ErrMalformedInput   = errors.New("malformed proposal")
)

// ConstructionError describes why a single edit could not be built from a
// tool call. A proposal containing any bad edit must be rejected whole.
type ConstructionError struct {
	EditIndex int
	Operation string
	Field     string
	Err       error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("edit %d (%s): %v: %s", e.EditIndex, e.Operation, e.Err, e.Field)
	}
	return fmt.Sprintf("edit %d: %v: %s", e.EditIndex, e.Err, e.Operation)
}

// Unwrap returns the underlying error.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// ParseProposal builds a patch from a tool-call JSON document of the form:
//
//	{
//	  "title": "...",
//	  "edits": [
//	    {"path": "...", "operation": "update", "old_text": "...", "new_text": "...", "description": "..."},
//	    ...
//	  ]
//	}
//
// Any malformed edit fails the whole proposal.
func ParseProposal(raw string) (Patch, error) {
	if !gjson.Valid(raw) {
		return Patch{}, ErrMalformedInput
	}
	doc := gjson.Parse(raw)

	var p Patch
	p.Title = doc.Get("title").String()
	p.Status = StatusReady

	edits := doc.Get("edits")
	if !edits.IsArray() {
		return Patch{}, fmt.Errorf("%w: edits array required", ErrMalformedInput)
	}
	for i, item := range edits.Array() {
		edit, err := parseEdit(i, item)
		if err != nil {
			return Patch{}, err
		}
		p.Edits = append(p.Edits, edit)
	}
	return p, nil
}

// parseEdit constructs one Edit, enforcing the per-operation required
// fields.
func parseEdit(index int, item gjson.Result) (Edit, error) {
	op := item.Get("operation").String()

	require := func(field string) (string, *ConstructionError) {
		v := item.Get(field)
		if !v.Exists() {
			return "", &ConstructionError{EditIndex: index, Operation: op, Field: field, Err: ErrMissingField}
		}
		return v.String(), nil
	}

	description := item.Get("description").String()

	// The operation decides which fields are required, so an unknown
	// operation is reported before any missing field.
	var kind Kind
	switch op {
	case "update":
		oldText, cerr := require("old_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		newText, cerr := require("new_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		kind = Update{OldText: oldText, NewText: newText, Description: description}
	case "create":
		newText, cerr := require("new_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		kind = Create{NewText: newText, Description: description}
	case "insert_before":
		oldText, cerr := require("old_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		newText, cerr := require("new_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		kind = InsertBefore{OldText: oldText, NewText: newText, Description: description}
	case "insert_after":
		oldText, cerr := require("old_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		newText, cerr := require("new_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		kind = InsertAfter{OldText: oldText, NewText: newText, Description: description}
	case "delete":
		oldText, cerr := require("old_text")
		if cerr != nil {
			return Edit{}, cerr
		}
		kind = Delete{OldText: oldText}
	default:
		return Edit{}, &ConstructionError{EditIndex: index, Operation: op, Err: ErrUnknownOperation}
	}

	path, cerr := require("path")
	if cerr != nil {
		return Edit{}, cerr
	}
	return Edit{Path: path, Kind: kind}, nil
}
