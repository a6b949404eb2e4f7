package etl

import (
	"time"

	"github.com/itchyny/gojq"

	"aqueduct/pkg/models"
)

// FieldRule derives one output field from a raw record. Rules are pure and
// total: any raw record yields a value (possibly nil), never an error.
type FieldRule interface {
	Column() models.Column
	Apply(rec models.RawRecord, ts time.Time) interface{}
}

// Profile is a named transformation profile: the ordered rule set applied to
// one dataset's raw records.
type Profile struct {
	Name  string
	Rules []FieldRule
}

// Schema returns the output schema defined by the profile's rules.
func (x *Profile) Schema() models.Schema {
	schema := make(models.Schema, len(x.Rules))
	for i, rule := range x.Rules {
		schema[i] = rule.Column()
	}
	return schema
}

// LoadTimestampColumn is appended to every transformed dataset and stamped
// once per batch.
const LoadTimestampColumn = "load_timestamp"

// NewProfile builds the transformation profile of a dataset. The products
// profile depends on the raw header, so the raw field set is required here.
func NewProfile(dataset models.Dataset, rawFields []string) (*Profile, error) {
	switch dataset.Name {
	case models.DatasetProducts.Name:
		return productsProfile(rawFields), nil
	case models.DatasetOrders.Name:
		return ordersProfile()
	default:
		return nil, models.NewFailure(models.TransformFailure, "no transformation profile for dataset: %s", dataset.Name)
	}
}

// productsProfile passes all source fields through unchanged and appends the
// batch load timestamp. No field is dropped or renamed.
func productsProfile(rawFields []string) *Profile {
	p := &Profile{Name: models.DatasetProducts.Name}
	for _, name := range rawFields {
		p.Rules = append(p.Rules, &copyRule{col: models.Column{Name: name, Type: models.ColumnTypeUTF8}})
	}
	p.Rules = append(p.Rules, &stampRule{})
	return p
}

// ordersProfile flattens the embedded product sub-object, derives payment and
// delivery markers, normalizes dates and appends the batch load timestamp.
func ordersProfile() (*Profile, error) {
	productID, err := newPathRule("product_id", models.ColumnTypeInt64, ".product.product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := newPathRule("quantity_product", models.ColumnTypeInt64, ".product.quantity")
	if err != nil {
		return nil, err
	}

	return &Profile{
		Name: models.DatasetOrders.Name,
		Rules: []FieldRule{
			&copyRule{col: models.Column{Name: "id", Type: models.ColumnTypeInt64}},
			&copyRule{col: models.Column{Name: "customer_id", Type: models.ColumnTypeInt64}},
			&copyRule{col: models.Column{Name: "credit_card", Type: models.ColumnTypeUTF8}},
			&dateRule{name: "order_date"},
			&dateRule{name: "delivery_date"},
			&choiceRule{name: "cash_or_card", field: "credit_card", whenNull: "cash", otherwise: "card"},
			&flagRule{name: "is_delivered", field: "delivery_date"},
			productID,
			quantity,
			&stampRule{},
		},
	}, nil
}

// copyRule copies a top-level source field unchanged.
type copyRule struct {
	col models.Column
}

func (x *copyRule) Column() models.Column { return x.col }
func (x *copyRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	return models.CoerceValue(x.col.Type, rec[x.col.Name])
}

// pathRule extracts a value at a nested path, compiled as a jq query.
// A record missing the nested structure yields nil rather than failing.
type pathRule struct {
	col   models.Column
	query *gojq.Query
}

func newPathRule(name string, t models.ColumnType, path string) (*pathRule, error) {
	q, err := gojq.Parse(path)
	if err != nil {
		return nil, models.WrapFailure(err, models.TransformFailure, "invalid field path: %s", path)
	}
	return &pathRule{col: models.Column{Name: name, Type: t}, query: q}, nil
}

func (x *pathRule) Column() models.Column { return x.col }
func (x *pathRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	iter := x.query.Run(map[string]interface{}(rec))
	v, ok := iter.Next()
	if !ok {
		return nil
	}
	if _, isErr := v.(error); isErr {
		return nil
	}
	return models.CoerceValue(x.col.Type, v)
}

// dateRule reformats a M/D/YYYY source date to YYYY-MM-DD. Already-canonical
// values pass through; anything else becomes nil, never an error.
type dateRule struct {
	name string
}

func (x *dateRule) Column() models.Column {
	return models.Column{Name: x.name, Type: models.ColumnTypeUTF8}
}

func (x *dateRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	return ReformatDate(rec[x.name])
}

// choiceRule yields one of two markers depending on source field presence.
type choiceRule struct {
	name      string
	field     string
	whenNull  string
	otherwise string
}

func (x *choiceRule) Column() models.Column {
	return models.Column{Name: x.name, Type: models.ColumnTypeUTF8}
}

func (x *choiceRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	if rec[x.field] == nil {
		return x.whenNull
	}
	return x.otherwise
}

// flagRule yields 0 when the source field is absent or null, else 1.
type flagRule struct {
	name  string
	field string
}

func (x *flagRule) Column() models.Column {
	return models.Column{Name: x.name, Type: models.ColumnTypeInt64}
}

func (x *flagRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	if rec[x.field] == nil {
		return int64(0)
	}
	return int64(1)
}

// stampRule appends the batch-wide load timestamp, identical for every
// record of the run.
type stampRule struct{}

func (x *stampRule) Column() models.Column {
	return models.Column{Name: LoadTimestampColumn, Type: models.ColumnTypeTimestamp}
}

func (x *stampRule) Apply(rec models.RawRecord, ts time.Time) interface{} {
	return ts.UTC()
}

const (
	sourceDateLayout    = "1/2/2006"
	canonicalDateLayout = "2006-01-02"
)

// ReformatDate normalizes a source date string to canonical YYYY-MM-DD form.
// It is idempotent on canonical input and total over arbitrary values:
// non-matching input yields nil.
func ReformatDate(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return nil
	}

	if _, err := time.Parse(canonicalDateLayout, s); err == nil {
		return s
	}

	t, err := time.Parse(sourceDateLayout, s)
	if err != nil {
		return nil
	}
	return t.Format(canonicalDateLayout)
}
