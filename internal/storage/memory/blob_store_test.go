package memory

import (
	"bytes"
	"context"
	"testing"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	blobs := NewBlobStore()
	payload := []byte("content")
	uri, err := blobs.PutObject(context.Background(), "responses/abc.json", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://responses/abc.json" {
		t.Fatalf("unexpected uri %s", uri)
	}

	payload[0] = 'C'
	stored, ok := blobs.GetObject("responses/abc.json")
	if !ok {
		t.Fatal("expected object to be stored")
	}
	if string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
}

func TestBlobStoreGetObjectMissing(t *testing.T) {
	t.Parallel()

	blobs := NewBlobStore()
	if _, ok := blobs.GetObject("responses/unknown.json"); ok {
		t.Fatal("expected missing object to report not ok")
	}
}
