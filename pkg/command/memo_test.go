package command

import "testing"

func TestMemo(t *testing.T) {
	type tuple struct{ x, y, z float64 }
	var m Memo[tuple]

	if !m.Changed(tuple{}) {
		t.Error("empty memo should report changed")
	}
	m.Store(tuple{1, 2, 3})
	if m.Changed(tuple{1, 2, 3}) {
		t.Error("same tuple reported changed")
	}
	if !m.Changed(tuple{1, 2, 4}) {
		t.Error("different tuple reported unchanged")
	}
	if v, ok := m.Last(); !ok || v != (tuple{1, 2, 3}) {
		t.Errorf("Last() = %v, %v", v, ok)
	}

	m.Clear()
	if !m.Changed(tuple{1, 2, 3}) {
		t.Error("cleared memo should report changed")
	}
}

func TestResender(t *testing.T) {
	r := NewResender(3)

	var sent []bool
	for _, v := range []int{180, 180, 180, 180, 90, 90, 90, 90, 90} {
		sent = append(sent, r.Offer(v))
	}
	want := []bool{true, true, true, false, true, true, true, false, false}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("cycle %d: sent = %v, want %v (all %v)", i, sent[i], want[i], sent)
		}
	}
}

func TestResenderRearmsMidBurst(t *testing.T) {
	r := NewResender(3)
	r.Offer(10)
	if r.Remaining() != 2 {
		t.Fatalf("Remaining() = %d, want 2", r.Remaining())
	}
	r.Offer(20)
	if r.Remaining() != 2 {
		t.Errorf("Remaining() after change = %d, want 2", r.Remaining())
	}
}
