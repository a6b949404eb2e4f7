package etl

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"aqueduct/internal/service"
	"aqueduct/pkg/models"
)

// Reader parses raw heterogeneous inputs into the uniform tabular
// representation. All parse errors surface as ReadFailure naming the source.
type Reader struct {
	s3 *service.S3Service
}

// NewReader is constructor of Reader
func NewReader(s3 *service.S3Service) *Reader {
	return &Reader{s3: s3}
}

// Read fetches one raw input object and parses it according to the declared
// input shape.
func (x *Reader) Read(src models.S3Object, shape models.InputShape) (*models.RawTable, error) {
	raw, err := x.s3.GetObject(src)
	if err != nil {
		return nil, models.WrapFailure(err, models.ReadFailure, "cannot fetch source: %s", src.Path())
	}
	if len(raw) == 0 {
		return nil, models.NewFailure(models.ReadFailure, "empty input: %s", src.Path())
	}

	var table *models.RawTable
	switch shape {
	case models.ShapeDelimited:
		table, err = parseDelimited(raw)
	case models.ShapeDocument:
		table, err = parseDocument(raw)
	default:
		return nil, models.NewFailure(models.ReadFailure, "unknown input shape %s: %s", shape, src.Path())
	}

	if err != nil {
		return nil, models.WrapFailure(err, models.ReadFailure, "cannot parse source: %s", src.Path())
	}
	if len(table.Records) == 0 {
		return nil, models.NewFailure(models.ReadFailure, "no records in source: %s", src.Path())
	}

	logger.WithField("records", len(table.Records)).Debug("Parsed raw input")
	return table, nil
}

// parseDelimited reads header-first delimited text. Fields may be quoted to
// embed the delimiter; the header row defines the field names.
func parseDelimited(raw []byte) (*models.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Fail to read header row")
	}
	for _, name := range header {
		if name == "" {
			return nil, errors.New("malformed header: empty field name")
		}
	}

	table := &models.RawTable{Fields: header}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Fail to read data row")
		}
		if len(row) != len(header) {
			return nil, errors.Errorf("row has %d fields, header has %d", len(row), len(header))
		}

		rec := models.RawRecord{}
		for i, name := range header {
			rec[name] = row[i]
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// parseDocument reads one JSON document whose top-level array elements are
// records. The document may span multiple physical lines.
func parseDocument(raw []byte) (*models.RawTable, error) {
	var docs []models.RawRecord
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, errors.Wrap(err, "Fail to parse document structure")
	}

	return &models.RawTable{Records: docs}, nil
}
