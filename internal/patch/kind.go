package patch

// Kind is the closed set of edit operations a proposal may contain.
// Implementations are comparable value types, so two kinds are structurally
// identical exactly when they compare equal with ==. The relocator relies on
// that to detect edits that survived a proposal revision unchanged.
type Kind interface {
	// Operation returns the wire name of the operation.
	Operation() string

	kind() // closed set marker
}

// Update replaces OldText with NewText.
type Update struct {
	OldText     string
	NewText     string
	Description string
}

// Create creates a new file with NewText as its content.
type Create struct {
	NewText     string
	Description string
}

// InsertBefore inserts NewText on the line before OldText.
type InsertBefore struct {
	OldText     string
	NewText     string
	Description string
}

// InsertAfter inserts NewText on the line after OldText.
type InsertAfter struct {
	OldText     string
	NewText     string
	Description string
}

// Delete removes the lines matching OldText.
type Delete struct {
	OldText string
}

// Operation returns the wire name of the operation.
func (Update) Operation() string { return "update" }

// Operation returns the wire name of the operation.
func (Create) Operation() string { return "create" }

// Operation returns the wire name of the operation.
func (InsertBefore) Operation() string { return "insert_before" }

// Operation returns the wire name of the operation.
func (InsertAfter) Operation() string { return "insert_after" }

// Operation returns the wire name of the operation.
func (Delete) Operation() string { return "delete" }

func (Update) kind()       {}
func (Create) kind()       {}
func (InsertBefore) kind() {}
func (InsertAfter) kind()  {}
func (Delete) kind()       {}
