package model

import "testing"

func TestIDSetAddIdempotent(t *testing.T) {
	var s IDSet
	s = s.Add(3)
	s = s.Add(3)
	if len(s) != 1 {
		t.Fatalf("len = %d, want 1", len(s))
	}
	if !s.Contains(3) {
		t.Fatal("should contain 3")
	}
}

func TestIDSetRemove(t *testing.T) {
	s := IDSet{1, 2, 3}
	s = s.Remove(2)
	if s.Contains(2) {
		t.Fatal("2 should be removed")
	}
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	// 移除不存在的成员是 no-op
	if got := s.Remove(99); len(got) != 2 {
		t.Fatalf("remove missing: len = %d, want 2", len(got))
	}
}

func TestIDSetRoundTrip(t *testing.T) {
	s := IDSet{7, 8}
	v, err := s.Value()
	if err != nil {
		t.Fatal(err)
	}
	var out IDSet
	if err := out.Scan(v); err != nil {
		t.Fatal(err)
	}
	if !out.Contains(7) || !out.Contains(8) || len(out) != 2 {
		t.Fatalf("round trip lost members: %v", out)
	}
}

func TestIDSetNilValue(t *testing.T) {
	var s IDSet
	v, err := s.Value()
	if err != nil {
		t.Fatal(err)
	}
	// 空集合必须落库为 "[]"，NULL 会破坏 JSON_CONTAINS 过滤
	if v != "[]" {
		t.Fatalf("nil set value = %v, want []", v)
	}

	var out IDSet
	if err := out.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if out.Contains(0) || len(out) != 0 {
		t.Fatalf("scan nil should give empty set, got %v", out)
	}
}
