package etl

import (
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"aqueduct/internal/service"
	"aqueduct/pkg/models"
)

const (
	// About parquet format: https://parquet.apache.org/documentation/latest/
	parquetRowGroupSize = 16 * 1024 * 1024 // 16MB
	parquetConcurrency  = 4
)

// Writer serializes tables to compressed columnar artifacts in the object
// store. Each write fully supersedes prior contents at the destination
// prefix: the new artifact is published under a fresh name first, stale
// objects are removed after.
type Writer struct {
	s3 *service.S3Service
}

// NewWriter is constructor of Writer
func NewWriter(s3 *service.S3Service) *Writer {
	return &Writer{s3: s3}
}

// Write dumps a table to a local parquet file and replaces the artifact
// under dst's key prefix with it. dst.Key must be the destination prefix.
func (x *Writer) Write(table *models.Table, dst models.S3Object) error {
	if len(table.Schema) == 0 {
		return models.NewFailure(models.WriteFailure, "empty schema for artifact: %s", dst.Path())
	}

	filePath, err := dumpParquet(table)
	if err != nil {
		return models.WrapFailure(err, models.WriteFailure, "cannot build artifact for %s", dst.Path())
	}
	defer os.Remove(*filePath)

	stale, err := x.s3.ListObjects(dst, dst.Key)
	if err != nil {
		return models.WrapFailure(err, models.WriteFailure, "cannot list prior artifacts: %s", dst.Path())
	}

	artifact := dst
	artifact.AppendKey(fmt.Sprintf("part-%s%s", uuid.New().String(), models.ParquetSuffix))

	if err := x.s3.UploadFileToS3(*filePath, artifact); err != nil {
		return models.WrapFailure(err, models.WriteFailure, "cannot upload artifact: %s", artifact.Path())
	}

	var staleObjects []models.S3Object
	for _, obj := range stale {
		staleObjects = append(staleObjects, obj.Object)
	}
	if err := x.s3.DeleteS3Objects(staleObjects); err != nil {
		return models.WrapFailure(err, models.WriteFailure, "cannot remove stale artifacts: %s", dst.Path())
	}

	logger.WithFields(logrus.Fields{
		"artifact": artifact.Path(),
		"records":  len(table.Records),
		"replaced": len(staleObjects),
	}).Info("Wrote columnar artifact")

	return nil
}

// dumpParquet writes a table to a local temp parquet file with snappy
// compression, preserving column order and typing.
func dumpParquet(table *models.Table) (*string, error) {
	fd, err := ioutil.TempFile("", "*"+models.ParquetSuffix)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to create a temp parquet file")
	}
	fd.Close()
	filePath := fd.Name()

	fw, err := local.NewLocalFileWriter(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to create a parquet file")
	}

	pw, err := writer.NewCSVWriter(parquetMetadata(table.Schema), fw, parquetConcurrency)
	if err != nil {
		fw.Close()
		return nil, errors.Wrap(err, "Fail to create parquet writer")
	}

	pw.RowGroupSize = parquetRowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range table.Records {
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = toParquetValue(v)
		}
		if err := pw.Write(row); err != nil {
			fw.Close()
			return nil, errors.Wrap(err, "Fail to write parquet record")
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, "Fail to WriteStop parquet file")
	}
	if err := fw.Close(); err != nil {
		return nil, errors.Wrap(err, "Fail to close parquet file")
	}

	return &filePath, nil
}

// parquetMetadata maps a schema to parquet CSV writer metadata. All columns
// are OPTIONAL so absent values stay null through the round trip.
func parquetMetadata(schema models.Schema) []string {
	md := make([]string, len(schema))
	for i, col := range schema {
		var t string
		switch col.Type {
		case models.ColumnTypeInt64:
			t = "INT64"
		case models.ColumnTypeTimestamp:
			t = "TIMESTAMP_MILLIS"
		default:
			t = "UTF8"
		}
		md[i] = fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", col.Name, t)
	}
	return md
}

func toParquetValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.UTC().UnixMilli()
	default:
		return val
	}
}

// ReadArtifact downloads a columnar artifact and materializes it fully in
// memory, reconstructing the schema from the parquet footer.
func ReadArtifact(s3 *service.S3Service, obj models.S3Object) (*models.Table, error) {
	filePath, err := s3.DownloadS3Object(obj, "*"+models.ParquetSuffix)
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to download artifact: %s", obj.Path())
	}
	defer os.Remove(*filePath)

	return readParquet(*filePath)
}

func readParquet(filePath string) (*models.Table, error) {
	fr, err := local.NewLocalFileReader(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to open parquet file")
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, parquetConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to create parquet reader")
	}
	defer pr.ReadStop()

	schema, err := schemaFromFooter(pr.Footer.Schema)
	if err != nil {
		return nil, err
	}

	table := models.NewTable(schema)

	num := int(pr.GetNumRows())
	if num == 0 {
		return table, nil
	}

	rows, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to read parquet rows")
	}

	for _, row := range rows {
		v := reflect.ValueOf(row)
		if v.Kind() != reflect.Struct || v.NumField() != len(schema) {
			return nil, errors.Errorf("unexpected parquet row shape: %T", row)
		}

		rec := make(models.Record, len(schema))
		for i := range schema {
			rec[i] = fromParquetValue(schema[i].Type, v.Field(i))
		}
		if err := table.Append(rec); err != nil {
			return nil, errors.Wrap(err, "Fail to append parquet record")
		}
	}

	return table, nil
}

// schemaFromFooter rebuilds the table schema from the flat parquet schema
// elements. Element 0 is the root.
func schemaFromFooter(elements []*parquet.SchemaElement) (models.Schema, error) {
	if len(elements) < 2 {
		return nil, errors.New("parquet schema has no columns")
	}

	schema := make(models.Schema, 0, len(elements)-1)
	for _, elem := range elements[1:] {
		// The parquet writer upper-cases the head of each column name to make
		// it a valid Go identifier. Columns here are snake_case, so lowering
		// the head restores the original.
		col := models.Column{Name: headToLower(elem.Name), Type: models.ColumnTypeUTF8}

		switch {
		case elem.ConvertedType != nil && *elem.ConvertedType == parquet.ConvertedType_TIMESTAMP_MILLIS:
			col.Type = models.ColumnTypeTimestamp
		case elem.Type != nil && *elem.Type == parquet.Type_INT64:
			col.Type = models.ColumnTypeInt64
		}

		schema = append(schema, col)
	}

	return schema, nil
}

func headToLower(name string) string {
	if name == "" {
		return name
	}
	head := name[0]
	if head < 'A' || head > 'Z' {
		return name
	}
	return string(head+'a'-'A') + name[1:]
}

func fromParquetValue(t models.ColumnType, field reflect.Value) interface{} {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return nil
		}
		field = field.Elem()
	}

	v := field.Interface()
	if t == models.ColumnTypeTimestamp {
		if millis, ok := v.(int64); ok {
			return time.UnixMilli(millis).UTC()
		}
		return nil
	}
	return models.CoerceValue(t, v)
}
