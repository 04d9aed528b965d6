package shaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedSourcesAreComplete(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	all := map[string]string{
		"vertex":       s.Vertex,
		"gbuffer":      s.GBuffer,
		"lighting":     s.Lighting,
		"atmosphere":   s.Atmosphere,
		"clouds":       s.Clouds,
		"composite":    s.Composite,
		"cloud noise":  s.CloudNoise,
		"surface info": s.SurfaceInfo,
	}
	for name, src := range all {
		if !strings.HasPrefix(src, "#version 430 core") {
			t.Errorf("%s: missing #version on first line", name)
		}
		if strings.Contains(src, includeToken) {
			t.Errorf("%s: unexpanded include", name)
		}
	}
}

func TestIncludeSharesTerrain(t *testing.T) {
	s := Embedded()
	for name, src := range map[string]string{"gbuffer": s.GBuffer, "surface info": s.SurfaceInfo} {
		if !strings.Contains(src, "float terrainHeight(vec3 dir)") {
			t.Errorf("%s: terrain function not included", name)
		}
	}
	if !strings.Contains(s.Composite, "showLayer[9]") {
		t.Error("composite: missing showLayer array")
	}
}

func TestOverrideDirWins(t *testing.T) {
	dir := t.TempDir()
	custom := "#version 430 core\nvoid main() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "lighting.frag"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Lighting != custom {
		t.Errorf("expected override, got %q", s.Lighting)
	}
	if s.GBuffer != Embedded().GBuffer {
		t.Error("files missing from the override dir should come from the embedded set")
	}
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("common.glsl", "#include \"common.glsl\"\n")

	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Errorf("expected include cycle error, got %v", err)
	}
}

func TestMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing dir")
	}
}
