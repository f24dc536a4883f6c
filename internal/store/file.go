package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kilupskalvis/gitsim/internal/models"
	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks export files that are zstd-compressed.
const CompressedSuffix = ".zst"

// WriteFile exports doc to path, compressing when path ends in .zst.
func WriteFile(path string, doc *models.Document) error {
	data, err := EncodeIndent(doc)
	if err != nil {
		return err
	}

	if strings.HasSuffix(path, CompressedSuffix) {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return fmt.Errorf("compress state: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("compress state: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile imports a document written by WriteFile.
func ReadFile(path string) (*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}
