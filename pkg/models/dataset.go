package models

// InputShape declares how a dataset's raw input is parsed.
type InputShape string

const (
	// ShapeDelimited is header-first delimited text, one record per row
	ShapeDelimited InputShape = "delimited"
	// ShapeDocument is a single JSON document whose top-level array elements
	// are records, possibly spanning multiple physical lines
	ShapeDocument InputShape = "nested-document"
)

// LoadPolicy controls how a relational table receives a batch.
type LoadPolicy string

const (
	// PolicyReplace drops and recreates the table from the incoming batch
	PolicyReplace LoadPolicy = "replace"
	// PolicyAppend adds rows without touching existing contents
	PolicyAppend LoadPolicy = "append"
)

// Dataset describes one pipeline dataset: where its raw input lives, how to
// parse it, which transformation profile applies and how it is loaded.
type Dataset struct {
	Name    string
	Shape   InputShape
	RawFile string
	Table   string
	Policy  LoadPolicy
}

// RawKey returns the object key of the dataset's raw input file.
func (x Dataset) RawKey() string {
	return RawPrefix(x.Name) + x.RawFile
}

// ArtifactPrefix returns the prefix of the dataset's columnar artifact.
func (x Dataset) ArtifactPrefix() string {
	return TransformedPrefix(x.Name)
}

// Transformed datasets processed by the object-store pipeline, in stage order.
var (
	DatasetProducts = Dataset{
		Name:    "products",
		Shape:   ShapeDelimited,
		RawFile: "products.csv",
		Table:   "products",
		Policy:  PolicyReplace,
	}
	DatasetOrders = Dataset{
		Name:    "orders",
		Shape:   ShapeDocument,
		RawFile: "orders.json",
		Table:   "orders",
		Policy:  PolicyReplace,
	}
)

// TransformedDatasets lists datasets that go through transform and load
// stages. products and orders share no state and run strictly in this order.
func TransformedDatasets() []Dataset {
	return []Dataset{DatasetProducts, DatasetOrders}
}

// CustomersTable receives the warehouse extract under the append policy.
const CustomersTable = "customers"
