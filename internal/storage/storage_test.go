package storage

import (
	"context"
	"testing"
)

// TestMemKV_GetSet verifies Set stores a value and Get retrieves it.
func TestMemKV_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()

	if err := kv.Set(ctx, "locations", []byte(`[{"location":"Chicago"}]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := kv.Get(ctx, "locations")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(got) != `[{"location":"Chicago"}]` {
		t.Errorf("Get() = %s", got)
	}
}

// TestMemKV_Get_Miss verifies a missing key is a miss, not an error.
func TestMemKV_Get_Miss(t *testing.T) {
	kv := NewMemKV()
	_, ok, err := kv.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false")
	}
}

// TestFileKV_RoundTrip verifies Set/Get/Delete against a real directory.
func TestFileKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "locations"); ok {
		t.Fatal("Get() before Set should miss")
	}

	if err := kv.Set(ctx, "locations", []byte(`["a"]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := kv.Get(ctx, "locations")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || string(got) != `["a"]` {
		t.Errorf("Get() = %s, ok = %v", got, ok)
	}

	// Overwrite replaces the whole value.
	if err := kv.Set(ctx, "locations", []byte(`["b","c"]`)); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, _, _ = kv.Get(ctx, "locations")
	if string(got) != `["b","c"]` {
		t.Errorf("Get() after overwrite = %s", got)
	}

	if err := kv.Delete(ctx, "locations"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "locations"); ok {
		t.Error("Get() after Delete should miss")
	}

	// Deleting again is fine.
	if err := kv.Delete(ctx, "locations"); err != nil {
		t.Errorf("Delete() missing key error = %v", err)
	}
}
