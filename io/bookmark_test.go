package io

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBookmarkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmark.json")
	want := Bookmark{Position: [3]float32{1, -2, 10193.6}, Yaw: -90, Pitch: 12.5, Roll: 3, FOV: 60}

	if err := SaveBookmark(path, want); err != nil {
		t.Fatalf("SaveBookmark: %v", err)
	}
	got, ok := LoadBookmark(path)
	if !ok {
		t.Fatal("LoadBookmark rejected a saved bookmark")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParseBookmarkFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{position:`},
		{"not an object", `[1,2,3]`},
		{"missing roll", `{"position":[0,0,1],"yaw":0,"pitch":0,"fov":60}`},
		{"missing position", `{"yaw":0,"pitch":0,"roll":0,"fov":60}`},
		{"null fov", `{"position":[0,0,1],"yaw":0,"pitch":0,"roll":0,"fov":null}`},
		{"short position", `{"position":[0,1],"yaw":0,"pitch":0,"roll":0,"fov":60}`},
		{"long position", `{"position":[0,1,2,3],"yaw":0,"pitch":0,"roll":0,"fov":60}`},
		{"word yaw", `{"position":[0,0,1],"yaw":"abc","pitch":0,"roll":0,"fov":60}`},
		{"empty string roll", `{"position":[0,0,1],"yaw":0,"pitch":0,"roll":"","fov":60}`},
		{"word in position", `{"position":[0,"north",1],"yaw":0,"pitch":0,"roll":0,"fov":60}`},
		{"nan fov", `{"position":[0,0,1],"yaw":0,"pitch":0,"roll":0,"fov":"NaN"}`},
		{"nested position", `{"position":[[0],[0],[1]],"yaw":0,"pitch":0,"roll":0,"fov":60}`},
		{"bool pitch", `{"position":[0,0,1],"yaw":0,"pitch":true,"roll":0,"fov":60}`},
	}

	for _, tt := range tests {
		b, err := ParseBookmark([]byte(tt.doc))
		if err == nil {
			t.Errorf("%s: expected rejection, got %+v", tt.name, b)
		}
		if b != (Bookmark{}) {
			t.Errorf("%s: expected zero bookmark on failure, got %+v", tt.name, b)
		}
	}
}

func TestParseBookmarkCoercesNumericStrings(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Bookmark
	}{
		{
			"string yaw",
			`{"position":[0,0,1],"yaw":"90","pitch":0,"roll":0,"fov":60}`,
			Bookmark{Position: [3]float32{0, 0, 1}, Yaw: 90, FOV: 60},
		},
		{
			"strings everywhere",
			`{"position":[0,0,"6400.5"],"yaw":"-90","pitch":" 12.5 ","roll":"0","fov":"1e1"}`,
			Bookmark{Position: [3]float32{0, 0, 6400.5}, Yaw: -90, Pitch: 12.5, FOV: 10},
		},
	}

	for _, tt := range tests {
		b, err := ParseBookmark([]byte(tt.doc))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if b != tt.want {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.want, b)
		}
	}
}

func TestParseBookmarkIgnoresExtraKeys(t *testing.T) {
	doc := `{"position":[1,2,3],"yaw":10,"pitch":-5,"roll":0,"fov":75,"note":"summit"}`
	b, err := ParseBookmark([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.FOV != 75 || b.Position != [3]float32{1, 2, 3} {
		t.Errorf("unexpected bookmark %+v", b)
	}
}

func TestLoadBookmarkMissingFile(t *testing.T) {
	if _, ok := LoadBookmark(filepath.Join(t.TempDir(), "absent.json")); ok {
		t.Error("expected missing file to be rejected")
	}
}

func TestLoadBookmarkUnreadable(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := LoadBookmark(filepath.Join(dir, "sub")); ok {
		t.Error("expected a directory to be rejected")
	}
}
