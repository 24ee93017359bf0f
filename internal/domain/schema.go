package domain

// FieldType tells a client how to render an input field.
type FieldType string

const (
	// FieldNumber is a free numeric input.
	FieldNumber FieldType = "number"
	// FieldSelect is a categorical input with a fixed option list.
	FieldSelect FieldType = "select"
)

// Field describes one input column of the model.
type Field struct {
	Name    string
	Type    FieldType
	Options []string // populated for select fields only
}

// Schema is the client-facing description of the model's input row.
// Field order follows the order the model expects.
type Schema struct {
	Fields []Field
	Note   string
}
