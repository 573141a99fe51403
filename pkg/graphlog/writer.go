package graphlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	"graphbench/pkg/graph"
)

// DefaultEdgesPerBlock is the number of triples per EDGES block when the
// caller does not choose one.
const DefaultEdgesPerBlock = 4096

// Writer accumulates an update stream and serializes it as a log file.
// Operations are buffered in memory; WriteFile emits the header with the
// section offsets followed by the two binary sections.
type Writer struct {
	edgesPerBlock    int
	ops              []graph.WeightedEdge
	tempVertices     []uint64
	numFinalVertices uint64
	numFinalEdges    uint64
	maxWeight        float64
}

// NewWriter creates a writer with the given block granularity.
// edgesPerBlock <= 0 selects DefaultEdgesPerBlock.
func NewWriter(edgesPerBlock int) *Writer {
	if edgesPerBlock <= 0 {
		edgesPerBlock = DefaultEdgesPerBlock
	}
	return &Writer{edgesPerBlock: edgesPerBlock, maxWeight: 1.0}
}

// AppendOperation adds one update to the stream, in order.
func (w *Writer) AppendOperation(op graph.WeightedEdge) {
	w.ops = append(w.ops, op)
}

// SetTemporaryVertices records the vertex ids to be deleted at end of run.
func (w *Writer) SetTemporaryVertices(ids []uint64) {
	w.tempVertices = ids
}

// SetFinalCardinalities declares the vertex/edge counts of the net graph.
func (w *Writer) SetFinalCardinalities(vertices, edges uint64) {
	w.numFinalVertices = vertices
	w.numFinalEdges = edges
}

// SetMaxWeight records the weight cap the stream was generated with.
func (w *Writer) SetMaxWeight(maxWeight float64) {
	w.maxWeight = maxWeight
}

// NumOperations returns the number of buffered updates.
func (w *Writer) NumOperations() int {
	return len(w.ops)
}

// WriteFile serializes the log to path.
func (w *Writer) WriteFile(path string) error {
	edgesSection := w.encodeEdgesSection()
	vtxSection := w.encodeVertexSection()

	props := map[string]string{
		PropVersion:       fmt.Sprintf("%d", FormatVersion),
		PropBlockSize:     fmt.Sprintf("%d", w.edgesPerBlock*3),
		PropNumOperations: fmt.Sprintf("%d", len(w.ops)),
		PropNumEdgesFinal: fmt.Sprintf("%d", w.numFinalEdges),
		PropNumVertices:   fmt.Sprintf("%d", w.numFinalVertices),
		PropNumTempVtx:    fmt.Sprintf("%d", len(w.tempVertices)),
		PropMaxWeight:     fmt.Sprintf("%g", w.maxWeight),
	}

	// Offsets are absolute, but the header length depends on them. Render
	// them zero-padded to a fixed width so the header length is stable.
	props[propEdgesBegin] = fmt.Sprintf("%012d", 0)
	props[propVtxTempBegin] = fmt.Sprintf("%012d", 0)
	headerLen := len(renderHeader(props))
	props[propEdgesBegin] = fmt.Sprintf("%012d", headerLen)
	props[propVtxTempBegin] = fmt.Sprintf("%012d", headerLen+len(edgesSection))
	header := renderHeader(props)
	if len(header) != headerLen {
		return fmt.Errorf("graphlog: header length changed during offset fixup")
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, chunk := range [][]byte{header, edgesSection, vtxSection} {
		if _, err := file.Write(chunk); err != nil {
			file.Close()
			return err
		}
	}
	return file.Close()
}

func renderHeader(props map[string]string) []byte {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		fmt.Fprintf(&buf, "%s = %s\n", key, props[key])
	}
	buf.WriteString(headerSentinel)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func (w *Writer) encodeEdgesSection() []byte {
	var section bytes.Buffer
	for start := 0; start < len(w.ops); start += w.edgesPerBlock {
		end := start + w.edgesPerBlock
		if end > len(w.ops) {
			end = len(w.ops)
		}
		block := w.ops[start:end]
		raw := make([]byte, len(block)*24)
		sources := raw[:len(block)*8]
		destinations := raw[len(block)*8 : len(block)*16]
		weights := raw[len(block)*16:]
		for i, op := range block {
			binary.LittleEndian.PutUint64(sources[i*8:], op.Source)
			binary.LittleEndian.PutUint64(destinations[i*8:], op.Destination)
			binary.LittleEndian.PutUint64(weights[i*8:], math.Float64bits(op.Weight))
		}
		writeBlock(&section, uint32(len(block)), raw)
	}
	// zero-count terminator
	var terminator [blockHeaderSize]byte
	section.Write(terminator[:])
	return section.Bytes()
}

func (w *Writer) encodeVertexSection() []byte {
	var section bytes.Buffer
	if len(w.tempVertices) == 0 {
		var empty [blockHeaderSize]byte
		section.Write(empty[:])
		return section.Bytes()
	}
	raw := make([]byte, len(w.tempVertices)*8)
	for i, id := range w.tempVertices {
		binary.LittleEndian.PutUint64(raw[i*8:], id)
	}
	writeBlock(&section, uint32(len(w.tempVertices)), raw)
	return section.Bytes()
}

func writeBlock(buf *bytes.Buffer, count uint32, raw []byte) {
	compressed := snappy.Encode(nil, raw)
	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], count)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(compressed)))
	binary.LittleEndian.PutUint64(hdr[8:16], murmur3.Sum64(compressed))
	buf.Write(hdr[:])
	buf.Write(compressed)
}
