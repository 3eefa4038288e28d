package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestAudioKey(t *testing.T) {
	if got := AudioKey("audio", "cosmic-void"); got != "audio/cosmic-void.mp3" {
		t.Errorf("AudioKey() = %q, want audio/cosmic-void.mp3", got)
	}
	if got := AudioKey("", "cosmic-void"); got != "cosmic-void.mp3" {
		t.Errorf("AudioKey() = %q, want cosmic-void.mp3", got)
	}
}

func TestLocalStoragePutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	data := []byte("fake audio data")
	ref, err := s.Put(ctx, "audio/test.mp3", data, "audio/mpeg")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ref != filepath.Join(dir, "audio", "test.mp3") {
		t.Errorf("Put() ref = %q", ref)
	}

	for _, name := range []string{ref, "audio/test.mp3"} {
		got, err := s.Get(ctx, name)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", name, err)
		}
		if string(got) != string(data) {
			t.Errorf("Get(%q) = %q, want %q", name, got, data)
		}
	}
}

func TestLocalStorageGetMissing(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.Get(context.Background(), "audio/missing.mp3")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	for _, key := range []string{"../outside.mp3", "/etc/passwd", "audio/../../x.mp3"} {
		if _, err := s.Put(context.Background(), key, []byte("x"), "audio/mpeg"); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}

func TestLocalStorageList(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	empty, err := s.List(ctx, "audio")
	if err != nil || len(empty) != 0 {
		t.Fatalf("List() on empty dir = %v, %v", empty, err)
	}

	for _, key := range []string{"audio/b.mp3", "audio/a.mp3", "other/c.mp3"} {
		if _, err := s.Put(ctx, key, []byte("x"), "audio/mpeg"); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	got, err := s.List(ctx, "audio")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if want := []string{"audio/a.mp3", "audio/b.mp3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestKeyFromRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "fullRef", ref: "gs://bucket/audio/x.mp3", want: "audio/x.mp3"},
		{name: "bareKey", ref: "audio/x.mp3", want: "audio/x.mp3"},
		{name: "otherBucket", ref: "gs://elsewhere/audio/x.mp3", wantErr: true},
		{name: "noKey", ref: "gs://bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyFromRef(tt.ref, "gs://", "bucket")
			if (err != nil) != tt.wantErr {
				t.Fatalf("keyFromRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("keyFromRef() = %q, want %q", got, tt.want)
			}
		})
	}
}
