package canopy

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want ExportFormat
		ok   bool
	}{
		{"out.png", ExportPNG, true},
		{"OUT.SVG", ExportSVG, true},
		{"out.jpg", 0, false},
		{"out", 0, false},
	}
	for _, tt := range tests {
		got, err := ExportFormatForPath(tt.path)
		if (err == nil) != tt.ok {
			t.Errorf("ExportFormatForPath(%q) error = %v", tt.path, err)
			continue
		}
		if err != nil && !IsCode(err, ErrCodeInvalidInput) {
			t.Errorf("ExportFormatForPath(%q) code = %q", tt.path, GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ExportFormatForPath(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestExportPNG(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	var buf bytes.Buffer
	st, err := e.Export(&buf, ExportPNG)
	if err != nil {
		t.Fatal(err)
	}
	if st.Drawn != 5 {
		t.Errorf("Drawn = %d, want 5", st.Drawn)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("bounds = %v, want 800x600", b)
	}
	// Corner shows the background.
	r, g, b, _ := img.At(0, 0).RGBA()
	bg := e.Settings().Background
	if uint8(r>>8) > uint8(bg.R*255)+20 || uint8(g>>8) > uint8(bg.G*255)+20 || uint8(b>>8) > uint8(bg.B*255)+20 {
		t.Errorf("corner = %d,%d,%d, want near background %s", r>>8, g>>8, b>>8, bg.Hex())
	}
}

func TestExportSVG(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	e.Search("A1")
	e.Settle()
	var buf bytes.Buffer
	st, err := e.Export(&buf, ExportSVG)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Fatalf("not an SVG document:\n%s", out)
	}
	if !strings.Contains(out, `viewBox="0 0 8000 6000"`) {
		t.Error("missing scaled viewBox")
	}
	if got := strings.Count(out, "<circle"); got != 2*st.Drawn+1 {
		t.Errorf("circles = %d, want %d", got, 2*st.Drawn+1)
	}
	if !strings.Contains(out, "stroke-dasharray") {
		t.Error("highlight ring missing")
	}
	if strings.Count(out, "<text") != st.LabelsPlaced {
		t.Errorf("text elements = %d, want %d", strings.Count(out, "<text"), st.LabelsPlaced)
	}
}

func TestExportFile(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	dir := t.TempDir()

	path := filepath.Join(dir, "view.svg")
	if _, err := e.ExportFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("file is not SVG")
	}

	if _, err := e.ExportFile(filepath.Join(dir, "view.gif")); !IsCode(err, ErrCodeInvalidInput) {
		t.Errorf("gif export error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "view.gif")); !os.IsNotExist(err) {
		t.Error("unsupported format should not create a file")
	}
}

func TestGenerateDemo(t *testing.T) {
	a := Index(GenerateDemo(DemoSeed))
	b := Index(GenerateDemo(DemoSeed))
	if a.Len() != b.Len() {
		t.Fatalf("same seed gave %d and %d nodes", a.Len(), b.Len())
	}
	an, bn := a.Nodes(), b.Nodes()
	for i := range an {
		if an[i].Name != bn[i].Name || an[i].NumChildren() != bn[i].NumChildren() {
			t.Fatalf("node %d differs: %s vs %s", i, an[i].Name, bn[i].Name)
		}
	}

	if a.Root().Name != "Life" || a.MaxDepth() != len(demoPlan) {
		t.Errorf("root = %s, depth = %d", a.Root().Name, a.MaxDepth())
	}
	for _, n := range a.Nodes() {
		if n.Depth() == 0 {
			continue
		}
		if want := demoPlan[n.Depth()-1].level; n.Level != want {
			t.Fatalf("%s at depth %d has level %q, want %q", n.Name, n.Depth(), n.Level, want)
		}
	}
	for _, leaf := range a.Leaves() {
		if leaf.Level != "Species" {
			t.Errorf("leaf %s has level %q", leaf.Name, leaf.Level)
		}
	}
}

func TestDemoNameBanks(t *testing.T) {
	root := GenerateDemo(7)
	for i, c := range root.Children() {
		if want := demoNames["Kingdom"][i%len(demoNames["Kingdom"])]; c.Name != want {
			t.Errorf("kingdom %d = %q, want %q", i, c.Name, want)
		}
	}
}
