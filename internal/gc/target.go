package gc

import (
	"context"
	"sync"
)

// Target is the thing ForkGC collects: one inverted index (or shard of one).
// Scan runs inside the child process (or synchronously in-process when no
// subprocess is used) and must not mutate the live index; it only computes a
// repair plan. Apply runs in the parent and commits that plan.
//
// A real index's block storage is out of scope here (that lives in whatever
// storage engine ftaggregate sits on top of); Target is the seam a concrete
// storage implementation plugs into.
type Target interface {
	// UniqueID identifies the index being collected, stable across cycles.
	UniqueID() string

	// Scan inspects the current block layout and returns the blocks that
	// should be rewritten or dropped. It must be safe to run concurrently
	// with readers, since the live index keeps serving queries during a
	// scan.
	Scan(ctx context.Context) (ScanResult, error)

	// Apply commits a scan result: swaps in repaired blocks and removes
	// deleted ones. Runs with exclusive access to the index.
	Apply(ctx context.Context, result ScanResult) error
}

// Block is one entry in an inverted index's block list: a run of document
// records plus a count of how many of those records are garbage (deleted
// docs still occupying space). Only the last block in the list can still
// receive new records concurrently with a scan.
type Block struct {
	NumDocs int
	Garbage int
}

// BlockTarget is a reference Target over an in-memory block list. It exists
// to demonstrate the one piece of fork_gc.h's protocol that a generic
// Scan/Apply pair cannot express on its own: the last block's special
// handling (fork_gc.h's checkLastBlock, InvIdxBuffers.lastBlockIgnored, and
// MSG_IndexInfo's lastblk* fields).
//
// Every block except the last can only shrink between scan and apply (docs
// in it can be deleted, never added, because new records are always
// appended to the current last block). So an interior block's repaired copy
// is always safe to swap in. The last block is different: the parent may
// append new records to it while the child is still scanning, so by the
// time Apply runs, the repaired copy of the last block may already be
// missing documents the live index has. Apply detects that by comparing the
// live last block's doc count against the count observed at scan time
// (MSG_IndexInfo.lastblkNumDocs) and, if they differ, discards the
// repaired last block rather than clobbering the newly appended records;
// the next cycle will pick up that block's garbage again.
type BlockTarget struct {
	id string

	mu          sync.Mutex
	blocks      []Block
	ignoredLast uint64
}

// NewBlockTarget builds a BlockTarget over blocks, which it takes ownership
// of.
func NewBlockTarget(id string, blocks []Block) *BlockTarget {
	return &BlockTarget{id: id, blocks: blocks}
}

func (t *BlockTarget) UniqueID() string { return t.id }

// AppendDoc simulates the parent adding a new record to the last block, the
// kind of concurrent write checkLastBlock guards against. It is exported
// for tests that need to provoke the last-block-ignored path deterministically.
func (t *BlockTarget) AppendDoc() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.blocks) == 0 {
		t.blocks = append(t.blocks, Block{})
	}
	last := len(t.blocks) - 1
	t.blocks[last].NumDocs++
}

// LastBlockIgnoredCount reports how many cycles discarded a repaired last
// block because the live index grew out from under the scan.
func (t *BlockTarget) LastBlockIgnoredCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ignoredLast
}

// Scan snapshots the block list and produces a repair plan: every block
// with garbage is rewritten with that garbage squeezed out, keeping its
// position. The last block's doc count at scan time is recorded in
// IndexInfo so Apply can later detect whether it has since grown.
func (t *BlockTarget) Scan(_ context.Context) (ScanResult, error) {
	t.mu.Lock()
	blocks := append([]Block(nil), t.blocks...)
	t.mu.Unlock()

	result := ScanResult{UniqueID: t.id, Info: IndexInfo{NBlocksOrig: uint32(len(blocks))}}
	if len(blocks) == 0 {
		return result, nil
	}
	lastIdx := len(blocks) - 1
	result.Info.LastBlockNumDocs = uint64(blocks[lastIdx].NumDocs)

	for i, b := range blocks {
		if b.Garbage == 0 {
			continue
		}
		repaired := Block{NumDocs: b.NumDocs - b.Garbage}
		result.Repaired = append(result.Repaired, RepairedBlock{
			OldIndex: int64(i),
			NewIndex: int64(i),
			Payload:  encodeBlock(repaired),
		})
		result.Info.NBlocksRepaired++
		result.Info.NDocsCollected += uint64(b.Garbage)
		result.Info.NBytesCollected += uint64(b.Garbage)
		if i == lastIdx {
			result.Info.LastBlockDocsRemoved = uint64(b.Garbage)
			result.Info.LastBlockBytesFreed = uint64(b.Garbage)
		}
	}
	return result, nil
}

// Apply swaps repaired blocks into the live list, with the last block given
// the special treatment checkLastBlock documents: its repaired copy is
// applied only if the live last block still has the same doc count the
// scan observed. If the parent appended new docs to it in the meantime, the
// repair is ignored outright (lastBlockIgnored) rather than overwriting the
// new records; garbage collected from interior blocks is still committed.
func (t *BlockTarget) Apply(_ context.Context, result ScanResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	scanLastIdx := int(result.Info.NBlocksOrig) - 1
	for _, rb := range result.Repaired {
		if int(rb.OldIndex) == scanLastIdx {
			if int(rb.OldIndex) >= len(t.blocks) ||
				uint64(t.blocks[rb.OldIndex].NumDocs) != result.Info.LastBlockNumDocs {
				t.ignoredLast++
				continue
			}
		}
		if int(rb.NewIndex) >= len(t.blocks) {
			continue
		}
		t.blocks[rb.NewIndex] = decodeBlock(rb.Payload)
	}
	return nil
}

func encodeBlock(b Block) []byte {
	return []byte{byte(b.NumDocs), byte(b.Garbage)}
}

func decodeBlock(p []byte) Block {
	if len(p) < 2 {
		return Block{}
	}
	return Block{NumDocs: int(p[0]), Garbage: int(p[1])}
}
