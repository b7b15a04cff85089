package quota

import (
	"bytes"
	"context"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if raw, err := store.Load(ctx, "missing"); err != nil || raw != nil {
		t.Errorf("Load(missing) = (%v, %v), want (nil, nil)", raw, err)
	}

	want := []byte(`{"used":3}`)
	if err := store.Save(ctx, "usage", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "usage")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Load = %s, want %s", got, want)
	}

	// Save replaces the previous value.
	want2 := []byte(`{"used":4}`)
	if err := store.Save(ctx, "usage", want2); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, _ = store.Load(ctx, "usage")
	if !bytes.Equal(got, want2) {
		t.Errorf("Load after overwrite = %s, want %s", got, want2)
	}
}
