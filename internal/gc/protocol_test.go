package gc

import (
	"bytes"
	"testing"
)

func TestScanResultRoundTrip(t *testing.T) {
	want := ScanResult{
		UniqueID: "idx-abc",
		Info: IndexInfo{
			NBlocksOrig:          10,
			NBlocksRepaired:      3,
			NBytesCollected:      4096,
			NDocsCollected:       12,
			LastBlockDocsRemoved: 2,
			LastBlockBytesFreed:  512,
			LastBlockNumDocs:     7,
		},
		Repaired: []RepairedBlock{
			{OldIndex: 0, NewIndex: 0, Payload: []byte("rewritten block one")},
			{OldIndex: 5, NewIndex: 4, Payload: []byte("rewritten block two")},
		},
		Deleted: []DeletedBlock{{OldIndex: 2}, {OldIndex: 9}},
	}

	var buf bytes.Buffer
	if err := writeScanResult(&buf, want); err != nil {
		t.Fatalf("writeScanResult: %v", err)
	}

	got, err := readScanResult(&buf)
	if err != nil {
		t.Fatalf("readScanResult: %v", err)
	}

	if got.UniqueID != want.UniqueID {
		t.Fatalf("UniqueID = %q, want %q", got.UniqueID, want.UniqueID)
	}
	if got.Info != want.Info {
		t.Fatalf("Info = %+v, want %+v", got.Info, want.Info)
	}
	if len(got.Repaired) != len(want.Repaired) {
		t.Fatalf("len(Repaired) = %d, want %d", len(got.Repaired), len(want.Repaired))
	}
	for i, b := range want.Repaired {
		if got.Repaired[i].OldIndex != b.OldIndex || got.Repaired[i].NewIndex != b.NewIndex {
			t.Fatalf("Repaired[%d] index mismatch: got %+v, want %+v", i, got.Repaired[i], b)
		}
		if !bytes.Equal(got.Repaired[i].Payload, b.Payload) {
			t.Fatalf("Repaired[%d] payload mismatch: got %q, want %q", i, got.Repaired[i].Payload, b.Payload)
		}
	}
	if len(got.Deleted) != len(want.Deleted) {
		t.Fatalf("len(Deleted) = %d, want %d", len(got.Deleted), len(want.Deleted))
	}
	for i, b := range want.Deleted {
		if got.Deleted[i] != b {
			t.Fatalf("Deleted[%d] = %+v, want %+v", i, got.Deleted[i], b)
		}
	}
}

func TestReadScanResultPropagatesChildError(t *testing.T) {
	var buf bytes.Buffer
	fw, err := newFrameWriter(&buf)
	if err != nil {
		t.Fatalf("newFrameWriter: %v", err)
	}
	if err := fw.writeError("scan failed: disk full"); err != nil {
		t.Fatalf("writeError: %v", err)
	}

	_, err = readScanResult(&buf)
	if err == nil {
		t.Fatal("expected error from readScanResult")
	}
}

func TestReadScanResultMissingTerminator(t *testing.T) {
	var buf bytes.Buffer
	fw, err := newFrameWriter(&buf)
	if err != nil {
		t.Fatalf("newFrameWriter: %v", err)
	}
	if err := fw.writeHeader(Header{UniqueID: "idx-abc"}); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	_, err = readScanResult(&buf)
	if err == nil {
		t.Fatal("expected error for truncated stream without a terminator")
	}
}
