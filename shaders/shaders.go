// Package shaders holds the GLSL sources for the planet passes. The sources
// are embedded in the binary; a directory on disk can override any of them
// for iteration without a rebuild.
package shaders

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

//go:embed glsl/*
var embedded embed.FS

const (
	embeddedRoot = "glsl"
	includeToken = "#include"
)

// Sources is one complete set of shader sources, includes already expanded.
type Sources struct {
	Vertex      string
	GBuffer     string
	Lighting    string
	Atmosphere  string
	Clouds      string
	Composite   string
	CloudNoise  string
	SurfaceInfo string
}

var files = []struct {
	name string
	dst  func(*Sources) *string
}{
	{"fullscreen.vert", func(s *Sources) *string { return &s.Vertex }},
	{"gbuffer.frag", func(s *Sources) *string { return &s.GBuffer }},
	{"lighting.frag", func(s *Sources) *string { return &s.Lighting }},
	{"atmosphere.frag", func(s *Sources) *string { return &s.Atmosphere }},
	{"clouds.frag", func(s *Sources) *string { return &s.Clouds }},
	{"composite.frag", func(s *Sources) *string { return &s.Composite }},
	{"cloud_noise.comp", func(s *Sources) *string { return &s.CloudNoise }},
	{"surface_info.comp", func(s *Sources) *string { return &s.SurfaceInfo }},
}

// Load reads every source. Files present in dir win over the embedded copy;
// an empty dir uses the embedded set only.
func Load(dir string) (Sources, error) {
	root, err := fs.Sub(embedded, embeddedRoot)
	if err != nil {
		return Sources{}, err
	}
	var fsys fs.FS = root
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return Sources{}, fmt.Errorf("shader dir: %w", err)
		}
		if !info.IsDir() {
			return Sources{}, fmt.Errorf("shader dir %s: not a directory", dir)
		}
		fsys = overlay{top: os.DirFS(dir), base: root}
	}

	var s Sources
	for _, f := range files {
		src, err := expand(fsys, f.name, map[string]bool{})
		if err != nil {
			return Sources{}, err
		}
		*f.dst(&s) = src
	}
	return s, nil
}

// Embedded is Load with no override directory.
func Embedded() Sources {
	s, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded shaders: %v", err))
	}
	return s
}

// expand inlines #include "file" lines. The #version directive must stay on
// the first line, so includes are only legal after it.
func expand(fsys fs.FS, name string, active map[string]bool) (string, error) {
	if active[name] {
		return "", fmt.Errorf("%s: include cycle", name)
	}
	active[name] = true
	defer delete(active, name)

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", name, err)
	}

	var out strings.Builder
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, includeToken) {
			out.WriteString(text)
			out.WriteByte('\n')
			continue
		}
		target := strings.Trim(strings.TrimSpace(strings.TrimPrefix(trimmed, includeToken)), `"`)
		if target == "" {
			return "", fmt.Errorf("%s:%d: empty include", name, line)
		}
		inc, err := expand(fsys, target, active)
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", name, line, err)
		}
		out.WriteString(inc)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("scan shader %s: %w", name, err)
	}
	return out.String(), nil
}

// overlay serves files from top when present and falls back to base.
type overlay struct {
	top, base fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}
