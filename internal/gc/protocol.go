package gc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// frameKind tags each message on the child->parent pipe, mirroring the
// sequence fork_gc.h's child process writes: a header, zero or more repaired
// blocks, zero or more deleted blocks, one index-info summary, then a
// terminator.
type frameKind uint8

const (
	frameHeader frameKind = iota + 1
	frameRepairedBlock
	frameDeletedBlock
	frameIndexInfo
	frameTerminator
	frameError
)

// Header opens the child's report. UniqueID lets the parent verify it is
// reading the reply for the cycle it started, per the C struct's
// specUniqueId field.
type Header struct {
	UniqueID string
}

// RepairedBlock describes one inverted-index block the child rewrote in
// place, per MSG_RepairedBlock. OldIndex/NewIndex are block positions within
// the term's inverted index; Payload carries the rewritten block, zstd
// compressed on the wire.
type RepairedBlock struct {
	OldIndex int64
	NewIndex int64
	Payload  []byte
}

// DeletedBlock names a block the child dropped entirely, per
// MSG_DeletedBlock.
type DeletedBlock struct {
	OldIndex int64
}

// IndexInfo summarizes one scan, per MSG_IndexInfo.
type IndexInfo struct {
	NBlocksOrig           uint32
	NBlocksRepaired       uint32
	NBytesCollected       uint64
	NDocsCollected        uint64
	LastBlockDocsRemoved  uint64
	LastBlockBytesFreed   uint64
	LastBlockNumDocs      uint64
}

// ScanResult is the full repair plan the child produces and the parent
// applies, assembled from one Header, N RepairedBlock, M DeletedBlock, and
// one IndexInfo frame.
type ScanResult struct {
	UniqueID string
	Info     IndexInfo
	Repaired []RepairedBlock
	Deleted  []DeletedBlock
}

// frameWriter writes length-prefixed, kind-tagged msgpack frames to w. Block
// payloads are zstd-compressed before framing; every other frame is written
// uncompressed since they are small, fixed-shape structs.
type frameWriter struct {
	w   io.Writer
	enc *zstd.Encoder
}

func newFrameWriter(w io.Writer) (*frameWriter, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("gc: new zstd encoder: %w", err)
	}
	return &frameWriter{w: w, enc: enc}, nil
}

func (fw *frameWriter) writeFrame(kind frameKind, v any) error {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("gc: marshal frame %d: %w", kind, err)
	}
	var hdr [5]byte
	hdr[0] = byte(kind)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(body)))
	if _, err := fw.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = fw.w.Write(body)
	return err
}

func (fw *frameWriter) writeRepairedBlock(b RepairedBlock) error {
	b.Payload = fw.enc.EncodeAll(b.Payload, nil)
	return fw.writeFrame(frameRepairedBlock, b)
}

func (fw *frameWriter) writeHeader(h Header) error            { return fw.writeFrame(frameHeader, h) }
func (fw *frameWriter) writeDeletedBlock(b DeletedBlock) error { return fw.writeFrame(frameDeletedBlock, b) }
func (fw *frameWriter) writeIndexInfo(i IndexInfo) error       { return fw.writeFrame(frameIndexInfo, i) }
func (fw *frameWriter) writeTerminator() error                { return fw.writeFrame(frameTerminator, struct{}{}) }
func (fw *frameWriter) writeError(msg string) error {
	return fw.writeFrame(frameError, struct{ Message string }{msg})
}

// readScanResult reads frames from r until a terminator or error frame,
// assembling a ScanResult. The parent uses it to consume the child's report;
// without a subprocess, ForkGC calls Target.Scan directly and no frames are
// read.
func readScanResult(r io.Reader) (ScanResult, error) {
	br := bufio.NewReader(r)
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return ScanResult{}, fmt.Errorf("gc: new zstd decoder: %w", err)
	}
	defer dec.Close()

	var result ScanResult
	for {
		var hdr [5]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if err == io.EOF {
				return ScanResult{}, fmt.Errorf("gc: child closed pipe without terminator")
			}
			return ScanResult{}, fmt.Errorf("gc: read frame header: %w", err)
		}
		kind := frameKind(hdr[0])
		size := binary.LittleEndian.Uint32(hdr[1:])
		body := make([]byte, size)
		if _, err := io.ReadFull(br, body); err != nil {
			return ScanResult{}, fmt.Errorf("gc: read frame body: %w", err)
		}
		switch kind {
		case frameHeader:
			var h Header
			if err := msgpack.Unmarshal(body, &h); err != nil {
				return ScanResult{}, err
			}
			result.UniqueID = h.UniqueID
		case frameRepairedBlock:
			var b RepairedBlock
			if err := msgpack.Unmarshal(body, &b); err != nil {
				return ScanResult{}, err
			}
			plain, err := dec.DecodeAll(b.Payload, nil)
			if err != nil {
				return ScanResult{}, fmt.Errorf("gc: decompress block %d: %w", b.OldIndex, err)
			}
			b.Payload = plain
			result.Repaired = append(result.Repaired, b)
		case frameDeletedBlock:
			var b DeletedBlock
			if err := msgpack.Unmarshal(body, &b); err != nil {
				return ScanResult{}, err
			}
			result.Deleted = append(result.Deleted, b)
		case frameIndexInfo:
			var info IndexInfo
			if err := msgpack.Unmarshal(body, &info); err != nil {
				return ScanResult{}, err
			}
			result.Info = info
		case frameTerminator:
			return result, nil
		case frameError:
			var e struct{ Message string }
			if err := msgpack.Unmarshal(body, &e); err != nil {
				return ScanResult{}, err
			}
			return ScanResult{}, fmt.Errorf("gc: child reported error: %s", e.Message)
		default:
			return ScanResult{}, fmt.Errorf("gc: unknown frame kind %d", kind)
		}
	}
}

// writeScanResult serializes a complete ScanResult as a frame sequence. Used
// by the child-side scan runner (child.go).
func writeScanResult(w io.Writer, result ScanResult) error {
	fw, err := newFrameWriter(w)
	if err != nil {
		return err
	}
	if err := fw.writeHeader(Header{UniqueID: result.UniqueID}); err != nil {
		return err
	}
	for _, b := range result.Repaired {
		if err := fw.writeRepairedBlock(b); err != nil {
			return err
		}
	}
	for _, b := range result.Deleted {
		if err := fw.writeDeletedBlock(b); err != nil {
			return err
		}
	}
	if err := fw.writeIndexInfo(result.Info); err != nil {
		return err
	}
	return fw.writeTerminator()
}
