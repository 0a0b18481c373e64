package output

import (
	"os"

	"github.com/parquet-go/parquet-go"

	"holdings_pipeline/pkg/core/errs"
)

// ParquetWriter streams structs of type T to a Parquet file using the
// `parquet` struct tags for the schema.
type ParquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
}

// NewParquetWriter creates the file with snappy compression defaults;
// options override them.
func NewParquetWriter[T any](filename string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errs.Wrapf(err, "create %s", filename)
	}
	defaultOpts := []parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.WriteBufferSize(8 * 1024 * 1024),
		parquet.PageBufferSize(64 * 1024),
	}
	return &ParquetWriter[T]{
		file:   f,
		writer: parquet.NewGenericWriter[T](f, append(defaultOpts, options...)...),
	}, nil
}

// Write appends a batch of records.
func (p *ParquetWriter[T]) Write(data []T) error {
	if len(data) == 0 {
		return nil
	}
	_, err := p.writer.Write(data)
	return err
}

// Close finalizes the footer, then closes the file.
func (p *ParquetWriter[T]) Close() error {
	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return errs.Wrap(err, "close parquet writer")
	}
	return p.file.Close()
}

// WriteParquet writes one batch to filename and closes the file.
func WriteParquet[T any](filename string, data []T) error {
	w, err := NewParquetWriter[T](filename)
	if err != nil {
		return err
	}
	if err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
