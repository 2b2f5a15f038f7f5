package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
)

// Marshal serializes the export in its fixed textual form: header row,
// then data rows, standard CSV quoting, LF line endings, trailing
// newline. Logically identical exports marshal to identical bytes.
func Marshal(e Export) ([]byte, error) {
	if len(e.Header) == 0 {
		return nil, ErrEmptyHeader
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	err := writer.Write(e.Header)
	if err != nil {
		return nil, err
	}
	for _, row := range e.Rows {
		if len(row) != len(e.Header) {
			return nil, fmt.Errorf("row width %d does not match header width %d", len(row), len(e.Header))
		}
		err = writer.Write(row)
		if err != nil {
			return nil, err
		}
	}
	writer.Flush()
	err = writer.Error()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest is the sha256 of the export's marshaled form, used to identify
// snapshot content across runs.
func Digest(e Export) (string, error) {
	contents, err := Marshal(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:]), nil
}

// ReadSnapshot loads the last persisted export for a target. A missing
// file returns (nil, nil): there is no previous snapshot, which the
// comparator treats as outdated.
func ReadSnapshot(path string) (*Export, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &e, nil
}

// WriteSnapshot overwrites the snapshot file with the export's marshaled
// form. The write happens only after the full export is in memory, so a
// failed run never leaves a partial snapshot behind.
func WriteSnapshot(path string, e Export) error {
	contents, err := Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}
