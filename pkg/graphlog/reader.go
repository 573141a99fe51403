package graphlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	"graphbench/pkg/graph"
)

// EdgeBlock is one decoded block of the EDGES section: parallel arrays of
// sources, destinations and weights, consumed as Len() logical triples.
type EdgeBlock struct {
	Sources      []uint64
	Destinations []uint64
	Weights      []float64
}

// Len returns the number of triples in the block.
func (b *EdgeBlock) Len() int {
	return len(b.Sources)
}

// Edge returns the i-th triple as a WeightedEdge.
func (b *EdgeBlock) Edge(i int) graph.WeightedEdge {
	return graph.WeightedEdge{
		Source:      b.Sources[i],
		Destination: b.Destinations[i],
		Weight:      b.Weights[i],
	}
}

// Log is an open update log. It owns the file handle; section readers
// obtained from it share the handle, so only one may be active at a time.
type Log struct {
	file  *os.File
	props Properties
}

// Open opens the log at path and parses and validates its header.
func Open(path string) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	props, err := parseProperties(bufio.NewReader(file))
	if err != nil {
		file.Close()
		return nil, err
	}
	if err := props.validate(); err != nil {
		file.Close()
		return nil, err
	}
	return &Log{file: file, props: props}, nil
}

// Properties returns the parsed header metadata.
func (l *Log) Properties() Properties {
	return l.props
}

// Close releases the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// EdgeReader positions the log at the EDGES section and returns a block
// iterator over it.
func (l *Log) EdgeReader() (*EdgeReader, error) {
	r, err := l.sectionReader(propEdgesBegin)
	if err != nil {
		return nil, err
	}
	return &EdgeReader{r: r}, nil
}

// VertexReader positions the log at the VTX_TEMP section and returns a
// loader for the temporary vertex list.
func (l *Log) VertexReader() (*VertexReader, error) {
	r, err := l.sectionReader(propVtxTempBegin)
	if err != nil {
		return nil, err
	}
	return &VertexReader{r: r}, nil
}

func (l *Log) sectionReader(offsetKey string) (*bufio.Reader, error) {
	offset, err := l.props.Uint64(offsetKey)
	if err != nil {
		return nil, err
	}
	if _, err := l.file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	return bufio.NewReaderSize(l.file, 1<<20), nil
}

// blockHeader precedes every compressed block on disk.
type blockHeader struct {
	count      uint32
	compressed uint32
	checksum   uint64
}

const blockHeaderSize = 16

func readBlockHeader(r io.Reader) (blockHeader, error) {
	var buf [blockHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return blockHeader{}, fmt.Errorf("%w: short block header", ErrTruncatedBlock)
		}
		return blockHeader{}, err
	}
	return blockHeader{
		count:      binary.LittleEndian.Uint32(buf[0:4]),
		compressed: binary.LittleEndian.Uint32(buf[4:8]),
		checksum:   binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

func readBlockPayload(r io.Reader, hdr blockHeader) ([]byte, error) {
	compressed := make([]byte, hdr.compressed)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("%w: want %d payload bytes: %v", ErrTruncatedBlock, hdr.compressed, err)
	}
	if murmur3.Sum64(compressed) != hdr.checksum {
		return nil, ErrChecksum
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	return raw, nil
}

// EdgeReader iterates over the blocks of the EDGES section.
type EdgeReader struct {
	r    *bufio.Reader
	done bool
}

// Next decodes the next block into the caller-provided buffer, reusing its
// backing arrays, and returns the number of triples written. At the end of
// the section it returns (0, io.EOF).
func (er *EdgeReader) Next(block *EdgeBlock) (int, error) {
	if er.done {
		return 0, io.EOF
	}
	hdr, err := readBlockHeader(er.r)
	if err != nil {
		return 0, err
	}
	if hdr.count == 0 {
		er.done = true
		return 0, io.EOF
	}
	raw, err := readBlockPayload(er.r, hdr)
	if err != nil {
		return 0, err
	}
	n := int(hdr.count)
	if len(raw) != n*24 {
		return 0, fmt.Errorf("%w: %d triples need %d bytes, block has %d", ErrTruncatedBlock, n, n*24, len(raw))
	}

	block.Sources = grow(block.Sources, n)
	block.Destinations = grow(block.Destinations, n)
	if cap(block.Weights) < n {
		block.Weights = make([]float64, n)
	}
	block.Weights = block.Weights[:n]

	sources := raw[:n*8]
	destinations := raw[n*8 : n*16]
	weights := raw[n*16:]
	for i := 0; i < n; i++ {
		block.Sources[i] = binary.LittleEndian.Uint64(sources[i*8:])
		block.Destinations[i] = binary.LittleEndian.Uint64(destinations[i*8:])
		block.Weights[i] = math.Float64frombits(binary.LittleEndian.Uint64(weights[i*8:]))
	}
	return n, nil
}

func grow(s []uint64, n int) []uint64 {
	if cap(s) < n {
		return make([]uint64, n)
	}
	return s[:n]
}

// VertexReader loads the VTX_TEMP section.
type VertexReader struct {
	r *bufio.Reader
}

// Load fills the caller-provided buffer with temporary vertex ids and
// returns the number written. The buffer must be at least as large as the
// declared temporary-vertex cardinality.
func (vr *VertexReader) Load(buf []uint64) (int, error) {
	hdr, err := readBlockHeader(vr.r)
	if err != nil {
		return 0, err
	}
	if hdr.count == 0 {
		return 0, nil
	}
	raw, err := readBlockPayload(vr.r, hdr)
	if err != nil {
		return 0, err
	}
	n := int(hdr.count)
	if len(raw) != n*8 {
		return 0, fmt.Errorf("%w: %d vertices need %d bytes, block has %d", ErrTruncatedBlock, n, n*8, len(raw))
	}
	if len(buf) < n {
		return 0, fmt.Errorf("vertex buffer too small: %d < %d", len(buf), n)
	}
	for i := 0; i < n; i++ {
		buf[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return n, nil
}
