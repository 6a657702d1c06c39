// SPDX-License-Identifier: MPL-2.0

// Package checksum writes and verifies the checksums.txt file that
// accompanies every build output directory. The format is sha256sum's:
// "<hex digest>  <filename>", one entry per line.
package checksum

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the checksum list written next to build outputs.
const FileName = "checksums.txt"

var (
	// ErrMismatch indicates the computed SHA256 hash does not match the expected hash.
	ErrMismatch = errors.New("checksum mismatch")

	// ErrNotListed indicates the requested filename has no entry.
	ErrNotListed = errors.New("file not listed in checksums")

	errNoValidEntries = errors.New("no valid checksum entries found")
)

type (
	// Entry is one line of a checksum list.
	Entry struct {
		Hash     string // lowercase hex SHA256
		Filename string
	}

	// MismatchError provides details about a failed verification.
	// It wraps ErrMismatch so callers can use errors.Is for classification.
	MismatchError struct {
		Filename string
		Expected string
		Got      string
	}
)

// Error returns both digests for debugging.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Parse reads a checksum list. Blank and malformed lines are skipped; a list
// without any valid entry is an error.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		hash, filename, ok := strings.Cut(line, "  ")
		filename = strings.TrimPrefix(strings.TrimSpace(filename), "*")
		if !ok || filename == "" || !isHexDigest(hash) {
			continue
		}
		entries = append(entries, Entry{Hash: strings.ToLower(hash), Filename: filename})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, errNoValidEntries
	}
	return entries, nil
}

// Write renders entries in sha256sum format.
func Write(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s  %s\n", e.Hash, e.Filename); err != nil {
			return fmt.Errorf("writing checksums: %w", err)
		}
	}
	return nil
}

// Find returns the hash listed for filename.
func Find(entries []Entry, filename string) (string, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	return "", fmt.Errorf("%s: %w", filename, ErrNotListed)
}

// Compute returns an Entry for the file at path, named by its base name.
func Compute(path string) (Entry, error) {
	hash, err := FileHash(path)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Hash: hash, Filename: filepath.Base(path)}, nil
}

// VerifyFile compares the file's SHA256 with expected (case-insensitive).
func VerifyFile(path, expected string) error {
	got, err := FileHash(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expected) {
		return &MismatchError{Filename: path, Expected: strings.ToLower(expected), Got: got}
	}
	return nil
}

// VerifyDir checks every entry of dir/checksums.txt against the files in dir.
// It returns the verified filenames and the joined verification errors.
func VerifyDir(dir string) (verified []string, err error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open checksum list: %w", err)
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()

	entries, err := Parse(f)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, e := range entries {
		if verifyErr := VerifyFile(filepath.Join(dir, e.Filename), e.Hash); verifyErr != nil {
			errs = append(errs, verifyErr)
			continue
		}
		verified = append(verified, e.Filename)
	}
	return verified, errors.Join(errs...)
}

// FileHash streams the file through SHA256 and returns the lowercase hex digest.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
