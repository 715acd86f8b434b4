// Package binscan streams regex matches out of the bytes of an executable,
// a binary-safe grep. NUL bytes and line breaks separate records, matching
// is case-insensitive, and named capture groups are returned.
package binscan

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fearthecowboy/toolscout/internal/errors"
)

const (
	chunkSize = 256 * 1024

	// maxRecord caps the carried partial record so a separator-free blob
	// cannot grow without bound.
	maxRecord = 1024 * 1024
)

// Match holds the named capture groups of one record match.
type Match struct {
	Groups map[string]string
}

// Find returns the first match of pattern over the records of the binary at
// path, or nil when nothing matches.
func Find(path, pattern string) (*Match, error) {
	var first *Match

	err := FindAll(path, pattern, func(m *Match) bool {
		first = m
		return false
	})

	return first, err
}

// FindAll streams every record match to fn until fn returns false or the
// file is exhausted. Reading is lazy: fn returning false stops the scan
// without reading the rest of the file.
func FindAll(path, pattern string, fn func(*Match) bool) error {
	re, err := compile(pattern)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, chunkSize)

	var carry []byte

	chunk := make([]byte, chunkSize)

	for {
		n, readErr := reader.Read(chunk)
		if n > 0 {
			carry = append(carry, chunk[:n]...)
			records, rest := splitRecords(carry)
			carry = rest

			for _, record := range records {
				if !emit(re, record, fn) {
					return nil
				}
			}

			if len(carry) > maxRecord {
				if !emit(re, carry, fn) {
					return nil
				}

				carry = nil
			}
		}

		if readErr == io.EOF {
			if len(carry) > 0 && !emit(re, carry, fn) {
				return nil
			}

			return nil
		}

		if readErr != nil {
			return errors.WithStackTrace(readErr)
		}
	}
}

func compile(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return re, nil
}

// splitRecords cuts data at every NUL or line break, returning the complete
// records and the trailing partial record.
func splitRecords(data []byte) ([][]byte, []byte) {
	var records [][]byte

	start := 0

	for i, b := range data {
		if b == 0 || b == '\n' || b == '\r' {
			if i > start {
				records = append(records, data[start:i])
			}

			start = i + 1
		}
	}

	return records, append([]byte(nil), data[start:]...)
}

func emit(re *regexp.Regexp, record []byte, fn func(*Match) bool) bool {
	indexes := re.FindSubmatchIndex(record)
	if indexes == nil {
		return true
	}

	groups := map[string]string{}

	for i, name := range re.SubexpNames() {
		if name == "" || 2*i >= len(indexes) || indexes[2*i] < 0 {
			continue
		}

		groups[name] = string(record[indexes[2*i]:indexes[2*i+1]])
	}

	return fn(&Match{Groups: groups})
}
