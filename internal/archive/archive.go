// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ErrArchiveWrite is the sentinel wrapped by WriteError.
var ErrArchiveWrite = errors.New("archive write failed")

type (
	// Entry is one file planned for the archive.
	Entry struct {
		// RelativeName is the name inside the archive, always with forward slashes.
		RelativeName string
		SourcePath   string
		IsDirectory  bool
	}

	// Archive is a finalized archive file on disk.
	Archive struct {
		Path    string
		Entries []Entry
		// Size is the size of the archive file in bytes.
		Size int64
		// ContentBytes is the uncompressed size of all entries.
		ContentBytes int64
	}

	// Options configures Build.
	Options struct {
		Files   []string
		Folders []string
		// Exclude holds doublestar patterns matched against entry names.
		Exclude []string
		// Logger receives progress lines. nil discards them.
		Logger *log.Logger
	}

	// WriteError reports an I/O failure while writing the archive. It wraps
	// ErrArchiveWrite and the underlying cause.
	WriteError struct {
		Path  string
		Entry string
		Err   error
	}
)

// Error implements the error interface.
func (e *WriteError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("failed to write archive %s: entry %s: %v", e.Path, e.Entry, e.Err)
	}
	return fmt.Sprintf("failed to write archive %s: %v", e.Path, e.Err)
}

// Unwrap returns the sentinel and the cause.
func (e *WriteError) Unwrap() []error { return []error{ErrArchiveWrite, e.Err} }

// Build plans and writes the archive at dest.
func Build(ctx context.Context, opts Options, dest string) (*Archive, error) {
	logger := loggerOrDiscard(opts.Logger)

	entries, err := Plan(opts)
	if err != nil {
		return nil, &WriteError{Path: dest, Err: err}
	}
	return Write(ctx, entries, dest, logger)
}

// Write streams entries into a new archive at dest. On any failure the
// partial file is removed and a *WriteError is returned. Cancellation is
// checked between entries.
func Write(ctx context.Context, entries []Entry, dest string, logger *log.Logger) (_ *Archive, err error) {
	logger = loggerOrDiscard(logger)

	out, err := os.Create(dest)
	if err != nil {
		return nil, &WriteError{Path: dest, Err: err}
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dest) // best-effort removal of the partial archive
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	var content int64
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			closeQuietly(zw, out)
			return nil, &WriteError{Path: dest, Err: ctxErr}
		}

		n, addErr := addEntry(zw, entry)
		if addErr != nil {
			closeQuietly(zw, out)
			return nil, &WriteError{Path: dest, Entry: entry.RelativeName, Err: addErr}
		}
		content += n
		logger.Info("added entry", "name", entry.RelativeName, "size", humanize.IBytes(uint64(n)))
	}

	if closeErr := zw.Close(); closeErr != nil {
		_ = out.Close()
		return nil, &WriteError{Path: dest, Err: closeErr}
	}
	if closeErr := out.Close(); closeErr != nil {
		return nil, &WriteError{Path: dest, Err: closeErr}
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, &WriteError{Path: dest, Err: err}
	}

	logger.Info("archive complete",
		"path", dest,
		"entries", len(entries),
		"content", humanize.IBytes(uint64(content)),
		"compressed", humanize.IBytes(uint64(info.Size())),
	)

	return &Archive{Path: dest, Entries: entries, Size: info.Size(), ContentBytes: content}, nil
}

// addEntry copies one source file into the archive and returns the number of
// bytes written.
func addEntry(zw *zip.Writer, entry Entry) (_ int64, err error) {
	if entry.IsDirectory {
		_, err = zw.Create(entry.RelativeName + "/")
		return 0, err
	}

	src, err := os.Open(entry.SourcePath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := src.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory; list it as a folder", entry.SourcePath)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	header.Name = entry.RelativeName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, src)
}

func closeQuietly(zw *zip.Writer, f *os.File) {
	_ = zw.Close()
	_ = f.Close()
}

func loggerOrDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.New(io.Discard)
}
