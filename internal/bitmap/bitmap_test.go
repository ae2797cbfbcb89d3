package bitmap

import "testing"

func TestSetClearTest(t *testing.T) {
	b := New(200)
	for _, i := range []int{0, 1, 63, 64, 65, 127, 128, 199} {
		if b.Test(i) {
			t.Fatalf("bit %d set before Set", i)
		}
		b.Set(i)
		if !b.Test(i) {
			t.Fatalf("bit %d not set after Set", i)
		}
	}
	b.Clear(64)
	if b.Test(64) {
		t.Fatalf("bit 64 still set after Clear")
	}
	if !b.Test(65) {
		t.Fatalf("Clear(64) affected neighboring bit 65")
	}
}

func TestNextSet(t *testing.T) {
	b := New(130)
	b.Set(5)
	b.Set(64)
	b.Set(129)

	got := []int{}
	for i := b.NextSet(0); i != -1; i = b.NextSet(i + 1) {
		got = append(got, i)
	}
	want := []int{5, 64, 129}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNextSetNoneRemaining(t *testing.T) {
	b := New(64)
	if i := b.NextSet(0); i != -1 {
		t.Fatalf("expected -1 on empty bitmap, got %d", i)
	}
	b.Set(10)
	if i := b.NextSet(11); i != -1 {
		t.Fatalf("expected -1 past last set bit, got %d", i)
	}
}
