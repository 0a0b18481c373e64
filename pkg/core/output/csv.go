// Package output writes extraction results to files: per-period and
// combined CSVs, a Parquet mirror of the master table, and the run
// report.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"holdings_pipeline/pkg/core/errs"
)

// CSVWriter streams structs of type T to a CSV file, one column per
// exported field carrying a `col` tag. Fields tagged `col:"-"` are
// skipped. Nil pointer fields render as empty cells.
type CSVWriter[T any] struct {
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	columns       []columnInfo
}

type columnInfo struct {
	Index  int
	Header string
}

// NewCSVWriter creates the file and prepares the column layout from T's
// struct tags.
func NewCSVWriter[T any](filename string) (*CSVWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errs.Wrapf(err, "create %s", filename)
	}
	cols, err := analyzeColTags[T]()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &CSVWriter[T]{
		file:    f,
		writer:  csv.NewWriter(f),
		columns: cols,
	}, nil
}

func analyzeColTags[T any]() ([]columnInfo, error) {
	var t T
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, errs.New("generic type T must be a struct")
	}

	var cols []columnInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("col")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = field.Name
		}
		cols = append(cols, columnInfo{Index: i, Header: tag})
	}
	return cols, nil
}

// Write appends a batch of records, emitting the header row first on the
// initial call.
func (cw *CSVWriter[T]) Write(data []T) error {
	if !cw.headerWritten {
		headers := make([]string, len(cw.columns))
		for i, col := range cw.columns {
			headers[i] = col.Header
		}
		if err := cw.writer.Write(headers); err != nil {
			return errs.Wrap(err, "write header")
		}
		cw.headerWritten = true
	}

	record := make([]string, len(cw.columns))
	for _, item := range data {
		val := reflect.ValueOf(item)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}
		for i, col := range cw.columns {
			record[i] = renderCell(val.Field(col.Index))
		}
		if err := cw.writer.Write(record); err != nil {
			return errs.Wrap(err, "write record")
		}
	}
	return nil
}

func renderCell(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// Close flushes buffered rows and closes the file. A writer that saw no
// Write calls still leaves a header-less empty file behind.
func (cw *CSVWriter[T]) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return errs.Wrap(err, "flush csv")
	}
	return cw.file.Close()
}

// WriteCSV writes one batch to filename and closes the file. The header
// row is always present, even for an empty batch.
func WriteCSV[T any](filename string, data []T) error {
	w, err := NewCSVWriter[T](filename)
	if err != nil {
		return err
	}
	if err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
