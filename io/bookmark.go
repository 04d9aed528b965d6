// Package io persists camera bookmarks.
package io

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Bookmark is a saved camera pose.
type Bookmark struct {
	Position [3]float32 `json:"position"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	Roll     float32    `json:"roll"`
	FOV      float32    `json:"fov"`
}

var bookmarkKeys = []string{"position", "yaw", "pitch", "roll", "fov"}

// SaveBookmark writes b as indented JSON.
func SaveBookmark(path string, b Bookmark) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write bookmark: %w", err)
	}
	return nil
}

// LoadBookmark reads a bookmark. It fails closed: any missing key, wrong
// position arity or non-numeric value gives ok=false and a zero Bookmark.
func LoadBookmark(path string) (Bookmark, bool) {
	b, err := ReadBookmark(path)
	return b, err == nil
}

// ReadBookmark is LoadBookmark with the reason for a rejection.
func ReadBookmark(path string) (Bookmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to read bookmark: %w", err)
	}
	return ParseBookmark(data)
}

// ParseBookmark decodes and checks a bookmark document. Values may be JSON
// numbers or strings holding a number; anything else is rejected.
func ParseBookmark(data []byte) (Bookmark, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Bookmark{}, fmt.Errorf("failed to parse bookmark: %w", err)
	}
	for _, k := range bookmarkKeys {
		if v, ok := raw[k]; !ok || string(v) == "null" {
			return Bookmark{}, fmt.Errorf("bookmark: missing %q", k)
		}
	}

	var pos []json.RawMessage
	if err := json.Unmarshal(raw["position"], &pos); err != nil {
		return Bookmark{}, fmt.Errorf("bookmark position: %w", err)
	}
	if len(pos) != 3 {
		return Bookmark{}, fmt.Errorf("bookmark position: expected 3 values, got %d", len(pos))
	}

	var b Bookmark
	for i, v := range pos {
		f, err := parseFloat(v)
		if err != nil {
			return Bookmark{}, fmt.Errorf("bookmark position[%d]: %w", i, err)
		}
		b.Position[i] = f
	}

	scalars := []struct {
		key string
		dst *float32
	}{
		{"yaw", &b.Yaw},
		{"pitch", &b.Pitch},
		{"roll", &b.Roll},
		{"fov", &b.FOV},
	}
	for _, s := range scalars {
		f, err := parseFloat(raw[s.key])
		if err != nil {
			return Bookmark{}, fmt.Errorf("bookmark %s: %w", s.key, err)
		}
		*s.dst = f
	}
	return b, nil
}

// parseFloat accepts a finite JSON number or a string holding one.
func parseFloat(raw json.RawMessage) (float32, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 32)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected a number, got %s", raw)
	}
	f32 := float32(f)
	if math.IsNaN(f) || math.IsInf(float64(f32), 0) {
		return 0, fmt.Errorf("%s is not a finite float32", raw)
	}
	return f32, nil
}

// Vec3ToArray converts a vector to a [3]float32.
func Vec3ToArray(v mgl32.Vec3) [3]float32 {
	return [3]float32{v[0], v[1], v[2]}
}

// ArrayToVec3 converts a [3]float32 to a vector.
func ArrayToVec3(a [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{a[0], a[1], a[2]}
}
