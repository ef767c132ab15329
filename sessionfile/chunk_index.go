package sessionfile

import (
	"bufio"
	"io"

	"github.com/esrlabs/chipmunk-core/internal/errs"
)

// chunkScanSize is the read buffer used while rescanning newly
// appended bytes for newline sentinels.
const chunkScanSize = 1 << 20

// DefaultChunkSize is the rows-per-chunk used when a ChunkIndex is
// built with chunkSize <= 0 (config.Config.ChunkSize unset).
const DefaultChunkSize = 64 * 1024

// ByteRange is an inclusive-from, exclusive-to byte span, [From, To).
type ByteRange struct {
	From, To int64
}

// Chunk is the session file's (row-range, byte-range) indexing unit
// (spec.md §3: "Chunks are emitted during indexing so that later
// random-access grabs can map a row range to a file offset in
// O(log N)"). Rows is inclusive on both ends.
type Chunk struct {
	Rows  RowRange
	Bytes ByteRange
}

// ChunkIndex maps row numbers to byte offset ranges within the session
// file, built incrementally by scanning for '\n' as new bytes land
// (spec.md §4.7). Row N spans [offsets[N], offsets[N+1]); Chunks groups
// that per-row array into chunkSize-row bands, the unit spec.md §3
// names for O(log N) row-range-to-byte-range lookups.
type ChunkIndex struct {
	offsets     []int64
	scannedUpTo int64
	chunkSize   int
}

// NewChunkIndex builds an empty ChunkIndex grouping rows into bands of
// chunkSize rows; chunkSize <= 0 falls back to DefaultChunkSize.
func NewChunkIndex(chunkSize int) *ChunkIndex {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkIndex{offsets: []int64{0}, chunkSize: chunkSize}
}

// Rows returns the number of complete rows indexed so far.
func (c *ChunkIndex) Rows() int {
	if len(c.offsets) == 0 {
		return 0
	}
	return len(c.offsets) - 1
}

// Range returns the [from, to) byte offsets for row, or ok=false if row
// is out of range (including the still-unterminated trailing row).
func (c *ChunkIndex) Range(row int) (from, to int64, ok bool) {
	if row < 0 || row+1 >= len(c.offsets) {
		return 0, 0, false
	}
	return c.offsets[row], c.offsets[row+1], true
}

// ChunkCount returns the number of Chunks() without allocating them.
func (c *ChunkIndex) ChunkCount() int {
	rows := c.Rows()
	if rows == 0 {
		return 0
	}
	return (rows + c.chunkSize - 1) / c.chunkSize
}

// Chunks groups the indexed rows into chunkSize-row bands, each
// carrying the byte range its rows span. Chunks partition the file with
// no gaps: since Bytes.To is exclusive, chunk[i].Bytes.To ==
// chunk[i+1].Bytes.From, and since Rows.To is inclusive,
// chunk[i].Rows.To+1 == chunk[i+1].Rows.From. The last chunk may be
// shorter than chunkSize.
func (c *ChunkIndex) Chunks() []Chunk {
	rows := c.Rows()
	if rows == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, c.ChunkCount())
	for start := 0; start < rows; start += c.chunkSize {
		end := start + c.chunkSize - 1
		if end >= rows {
			end = rows - 1
		}
		chunks = append(chunks, Chunk{
			Rows:  RowRange{From: start, To: end},
			Bytes: ByteRange{From: c.offsets[start], To: c.offsets[end+1]},
		})
	}
	return chunks
}

// scan reads from r (already seeked to `from`) and appends one offset
// per '\n' found, returning the new total row count.
func (c *ChunkIndex) scan(r io.Reader, from int64) (int, error) {
	br := bufio.NewReaderSize(r, chunkScanSize)
	pos := from
	for {
		chunk, err := br.ReadBytes('\n')
		pos += int64(len(chunk))
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			c.offsets = append(c.offsets, pos)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return c.Rows(), errs.Wrap(errs.KindIo, "scan session file for chunk index", err)
		}
	}
	c.scannedUpTo = pos
	return c.Rows(), nil
}
