package argcursor

import (
	"errors"
	"testing"

	"ftaggregate/internal/aggerr"
)

func TestAdvanceIfMatch(t *testing.T) {
	c := New([]string{"LIMIT", "0", "10"})
	if !c.AdvanceIfMatch("limit") {
		t.Fatal("expected case-insensitive match")
	}
	if c.NumRemaining() != 2 {
		t.Fatalf("got %d remaining, want 2", c.NumRemaining())
	}
	if c.AdvanceIfMatch("limit") {
		t.Fatal("second match should fail, cursor already advanced")
	}
}

func TestGetU64(t *testing.T) {
	c := New([]string{"5", "notanumber"})
	n, err := c.GetU64()
	if err != nil || n != 5 {
		t.Fatalf("got (%d, %v), want (5, nil)", n, err)
	}
	if _, err := c.GetU64(); err == nil {
		t.Fatal("expected parse error for non-numeric token")
	} else if !errors.Is(err, aggerr.ErrParseArgs) {
		t.Fatalf("expected ErrParseArgs, got %v", err)
	}
}

func TestGetVarArgs(t *testing.T) {
	c := New([]string{"2", "@a", "@b", "TAIL"})
	sub, err := c.GetVarArgs()
	if err != nil {
		t.Fatalf("GetVarArgs: %v", err)
	}
	if sub.NumRemaining() != 2 {
		t.Fatalf("sub cursor has %d tokens, want 2", sub.NumRemaining())
	}
	if c.NumRemaining() != 1 {
		t.Fatalf("parent cursor has %d remaining, want 1 (TAIL)", c.NumRemaining())
	}
}

func TestParseArgSpecNotFoundDoesNotAdvance(t *testing.T) {
	c := New([]string{"SORTBY", "1", "@a"})
	var limit int64
	res, err := ParseArgSpec(c, Spec{Keyword: "LIMIT", Kind: SpecInt, Target: &limit})
	if err != nil || res != SpecNotFound {
		t.Fatalf("got (%v, %v), want (SpecNotFound, nil)", res, err)
	}
	if c.Pos() != 0 {
		t.Fatalf("cursor advanced on a not-found spec: pos=%d", c.Pos())
	}
}

func TestParseArgSpecErrorDoesNotOverAdvance(t *testing.T) {
	c := New([]string{"LIMIT", "notanumber", "TAIL"})
	var limit int64
	res, err := ParseArgSpec(c, Spec{Keyword: "LIMIT", Kind: SpecInt, Target: &limit})
	if res != SpecError || err == nil {
		t.Fatalf("got (%v, %v), want (SpecError, non-nil)", res, err)
	}
	// Invariant: never advances past the failed spec's own tokens.
	if c.Pos() > 2 {
		t.Fatalf("cursor advanced past the failed spec: pos=%d", c.Pos())
	}
}

func TestParseArgSpecBitFlag(t *testing.T) {
	c := New([]string{"VERBATIM", "REST"})
	var verbatim bool
	res, err := ParseArgSpec(c, Spec{Keyword: "VERBATIM", Kind: SpecBitFlag, Target: &verbatim})
	if err != nil || res != SpecOK || !verbatim {
		t.Fatalf("got (%v, %v, %v), want (SpecOK, nil, true)", res, err, verbatim)
	}
}
