package sqlite

import (
	"reflect"
	"testing"
)

func TestPhotoColumn(t *testing.T) {
	tests := []struct {
		name   string
		photos []string
		stored string
	}{
		{"nil", nil, "[]"},
		{"empty", []string{}, "[]"},
		{"two", []string{"file:///a.jpg", "file:///b.png"}, `["file:///a.jpg","file:///b.png"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodePhotos(tt.photos)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.stored {
				t.Errorf("stored %s, want %s", got, tt.stored)
			}
			back, err := decodePhotos(got)
			if err != nil {
				t.Fatal(err)
			}
			if len(back) != len(tt.photos) || (len(back) > 0 && !reflect.DeepEqual(back, tt.photos)) {
				t.Errorf("decoded %v, want %v", back, tt.photos)
			}
		})
	}
}

func TestDecodePhotosNullAndGarbage(t *testing.T) {
	got, err := decodePhotos("null")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("null: got %v, %v", got, err)
	}
	if _, err := decodePhotos("{not json"); err == nil {
		t.Error("expected an error for malformed photos")
	}
}
