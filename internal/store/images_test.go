package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/erazemk/predal/internal/db"
)

func TestImageRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := SaveImage(ctx, database, []byte("fake image data"), "image/jpeg")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected uuid image id, got %q", id)
	}

	data, mime, err := GetImage(ctx, database, id)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}
}

func TestGetImageMissing(t *testing.T) {
	database := db.NewTestDB(t)

	data, _, err := GetImage(context.Background(), database, uuid.NewString())
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if data != nil {
		t.Error("expected nil data for missing image")
	}
}
