package errors

import "testing"

func TestFieldErrors(t *testing.T) {
	var err error
	err = AppendField(err, "Hashlock", ErrEmpty)
	err = AppendField(err, "Maker", nil)
	err = AppendField(err, "Timelock.DstCancellation", Wrap(ErrState, "after source cancellation"))

	if errs := FieldErrors(err, "Hashlock"); len(errs) != 1 || !ErrEmpty.Is(errs[0]) {
		t.Fatalf("unexpected hashlock errors: %v", errs)
	}
	if errs := FieldErrors(err, "Maker"); len(errs) != 0 {
		t.Fatalf("want no maker errors, got %v", errs)
	}
	if errs := FieldErrors(err, "Timelock.DstCancellation"); len(errs) != 1 || !ErrState.Is(errs[0]) {
		t.Fatalf("unexpected timelock errors: %v", errs)
	}
	if !ErrState.Is(err) {
		t.Fatal("collection must match its members")
	}
}

func TestFieldNil(t *testing.T) {
	if err := Field("Amount", nil, "ignored"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}
