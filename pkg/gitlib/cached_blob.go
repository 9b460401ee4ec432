package gitlib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrBinary is raised by CachedBlob.CountLines when the blob is binary.
var ErrBinary = errors.New("binary")

// binarySniffLength is the number of bytes to scan for null bytes when detecting binary content.
const binarySniffLength = 8000

// lineCountBinary is the sentinel value indicating the blob is binary.
const lineCountBinary = -1

// CachedBlob caches blob data for efficient repeated access by the churn
// analyzer and the content-addressed layered cache, avoiding a repeat
// libgit2 object lookup for a blob already read once in this run.
type CachedBlob struct {
	hash Hash
	size int64
	// Data is the read contents of the blob object.
	Data []byte
	// lineCount caches the result of CountLines (-1 = binary).
	lineCount     int
	lineCountOnce sync.Once
}

// NewCachedBlobForTest creates a CachedBlob with the given data for testing purposes.
func NewCachedBlobForTest(data []byte) *CachedBlob {
	return &CachedBlob{size: int64(len(data)), Data: data}
}

// NewCachedBlobWithHashForTest creates a CachedBlob with the given hash and data for testing.
func NewCachedBlobWithHashForTest(hash Hash, data []byte) *CachedBlob {
	return &CachedBlob{hash: hash, size: int64(len(data)), Data: data}
}

// NewCachedBlobFromRepo loads and caches a blob from the repository.
func NewCachedBlobFromRepo(repo *Repository, blobHash Hash) (*CachedBlob, error) {
	blob, err := repo.LookupBlob(blobHash)
	if err != nil {
		return nil, fmt.Errorf("looking up blob %s: %w", blobHash.String(), err)
	}
	defer blob.Free()

	return &CachedBlob{
		hash: blobHash,
		size: blob.Size(),
		Data: blob.Contents(),
	}, nil
}

// Hash returns the blob hash.
func (b *CachedBlob) Hash() Hash {
	return b.hash
}

// Size returns the blob size.
func (b *CachedBlob) Size() int64 {
	return b.size
}

// Reader returns a reader for the blob data.
func (b *CachedBlob) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.Data))
}

// Clone creates a deep copy of the CachedBlob, detaching the Data slice so a
// cache entry handed to one reader can't be mutated through another's view.
func (b *CachedBlob) Clone() *CachedBlob {
	dataCopy := make([]byte, len(b.Data))
	copy(dataCopy, b.Data)

	return &CachedBlob{
		hash:      b.hash,
		size:      b.size,
		Data:      dataCopy,
		lineCount: b.lineCount,
	}
}

// CountLines returns the number of lines in the blob or ErrBinary if it is
// binary. The result is cached after the first call.
func (b *CachedBlob) CountLines() (int, error) {
	b.lineCountOnce.Do(func() {
		b.lineCount = b.computeLineCount()
	})

	if b.lineCount == lineCountBinary {
		return 0, ErrBinary
	}

	return b.lineCount, nil
}

// computeLineCount calculates the line count or returns lineCountBinary for binary files.
func (b *CachedBlob) computeLineCount() int {
	if len(b.Data) == 0 {
		return 0
	}

	sniff := b.Data
	if len(sniff) > binarySniffLength {
		sniff = sniff[:binarySniffLength]
	}

	if bytes.IndexByte(sniff, 0) >= 0 {
		return lineCountBinary
	}

	lines := bytes.Count(b.Data, []byte{'\n'})

	if b.Data[len(b.Data)-1] != '\n' {
		lines++
	}

	return lines
}

// IsBinary returns true if the blob appears to be binary.
func (b *CachedBlob) IsBinary() bool {
	if len(b.Data) == 0 {
		return false
	}

	sniff := b.Data
	if len(sniff) > binarySniffLength {
		sniff = sniff[:binarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}
