// Package writer archives daily K-line bars as parquet files, locally and
// optionally mirrored to S3.
package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "github.com/maxwell-lv/mootdx/config"
	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
)

// BarRecord is the parquet row layout for one daily bar.
type BarRecord struct {
	Symbol string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date   string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Open   float64 `parquet:"name=open, type=DOUBLE"`
	High   float64 `parquet:"name=high, type=DOUBLE"`
	Low    float64 `parquet:"name=low, type=DOUBLE"`
	Close  float64 `parquet:"name=close, type=DOUBLE"`
	Volume float64 `parquet:"name=volume, type=DOUBLE"`
	Amount float64 `parquet:"name=amount, type=DOUBLE"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)  { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write-only usage, seeking is never exercised.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

func compressionCodec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	case "lzo":
		return parquet.CompressionCodec_LZO
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

// EncodeBars renders bars into an in-memory parquet file. Bars without a
// symbol or date are skipped rather than producing placeholder rows.
func EncodeBars(bars []models.Bar, compression string) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(BarRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(compression)

	for _, b := range bars {
		if b.Symbol == "" || b.Date == "" {
			continue
		}
		record := BarRecord{
			Symbol: b.Symbol,
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Amount: b.Amount,
		}
		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

// KlineWriter persists bar batches as parquet files under the configured
// output directory and mirrors them to S3 when storage is enabled.
type KlineWriter struct {
	cfg      *appconfig.Config
	log      *logger.Entry
	uploader *S3Uploader

	// now is a hook for deterministic file naming in tests.
	now func() time.Time
}

// NewKlineWriter builds a writer from the configuration. The S3 uploader is
// only constructed when storage.s3.enabled is set.
func NewKlineWriter(cfg *appconfig.Config) (*KlineWriter, error) {
	w := &KlineWriter{
		cfg: cfg,
		log: logger.GetLogger().WithComponent("kline_writer"),
		now: time.Now,
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := NewS3Uploader(cfg)
		if err != nil {
			return nil, err
		}
		w.uploader = uploader
	}
	return w, nil
}

// objectKey builds the hive-style partition path for one batch.
func (w *KlineWriter) objectKey(symbol string) string {
	ts := w.now().UTC()
	filename := fmt.Sprintf("%s_day_%s_%s.parquet",
		symbol, ts.Format("20060102150405"), uuid.New().String()[:8])
	key := filepath.Join(
		fmt.Sprintf("symbol=%s", symbol),
		fmt.Sprintf("date=%s", ts.Format("2006-01-02")),
		filename,
	)
	return filepath.ToSlash(key)
}

// WriteBatch encodes one symbol's bars and writes them out. It returns the
// local file path. An S3 upload failure fails the batch so the caller can
// retry the symbol later.
func (w *KlineWriter) WriteBatch(symbol string, bars []models.Bar) (string, error) {
	if len(bars) == 0 {
		return "", nil
	}

	data, err := EncodeBars(bars, w.cfg.Writer.Compression)
	if err != nil {
		return "", err
	}

	key := w.objectKey(symbol)
	path := filepath.Join(w.cfg.Collector.OutputDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write parquet file: %w", err)
	}

	log := w.log.WithFields(logger.Fields{
		"symbol":    symbol,
		"bars":      len(bars),
		"file_size": len(data),
		"path":      path,
	})
	log.Info("parquet batch written")

	if w.uploader != nil {
		if err := w.uploader.Upload(key, data); err != nil {
			log.WithError(err).Error("failed to upload to S3")
			return "", err
		}
		log.WithFields(logger.Fields{"s3_key": key}).Info("batch mirrored to S3")
	}
	return path, nil
}
