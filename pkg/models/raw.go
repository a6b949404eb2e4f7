package models

// RawRecord is one source row or document, mapping field name to an untyped
// scalar or nested structure. Immutable after parse.
type RawRecord map[string]interface{}

// RawTable is the output of the record reader. Fields preserves the source
// field order when the input declares one (delimited header); it is empty for
// nested documents where the transformation profile defines the output set.
type RawTable struct {
	Fields  []string
	Records []RawRecord
}
