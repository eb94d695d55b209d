package memory

import (
	"context"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	value := []byte(`{"id":1}`)
	if err := s.Set(ctx, "empresaSelecionada", value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value[0] = 'x'

	got, ok, err := s.Get(ctx, "empresaSelecionada")
	if err != nil || !ok {
		t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"id":1}` {
		t.Errorf("expected stored copy to be unaffected by caller mutation, got %s", got)
	}

	if err := s.Delete(ctx, "empresaSelecionada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "empresaSelecionada"); ok {
		t.Error("expected key to be deleted")
	}
}
