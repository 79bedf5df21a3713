package canopy

import "testing"

func benchTree() *Tree {
	return Index(GenerateDemo(DemoSeed))
}

func BenchmarkIndex(b *testing.B) {
	for b.Loop() {
		Index(GenerateDemo(DemoSeed))
	}
}

func BenchmarkPack(b *testing.B) {
	tr := benchTree()
	for b.Loop() {
		defaultPack(tr.Root(), 1280, 800)
	}
}

func BenchmarkRender(b *testing.B) {
	tr := benchTree()
	sc := sceneFor(tr.Root())
	r := NewRenderer(sc.Settings, nil)
	cv := newRecordCanvas(800, 600)
	for b.Loop() {
		cv.ops = cv.ops[:0]
		r.Draw(cv, sc)
	}
}

func BenchmarkPick(b *testing.B) {
	tr := benchTree()
	sc := sceneFor(tr.Root())
	for b.Loop() {
		sc.Layout.Pick(sc.Camera, sc.Settings, 400, 300)
	}
}

func BenchmarkFind(b *testing.B) {
	tr := benchTree()
	for b.Loop() {
		tr.Find("drosoph")
	}
}
