package canopy

import (
	"math/rand/v2"
	"strings"
)

// DemoSeed is the seed used when no other is given.
const DemoSeed = 42

type demoRank struct {
	level    string
	min, max int
}

var demoPlan = []demoRank{
	{"Kingdom", 4, 6},
	{"Phylum", 4, 9},
	{"Class", 4, 8},
	{"Order", 3, 6},
	{"Family", 3, 5},
	{"Genus", 2, 4},
	{"Species", 1, 3},
}

var demoNames = map[string][]string{
	"Domain":  {"Bacteria", "Archaea", "Eukarya"},
	"Kingdom": {"Animalia", "Plantae", "Fungi", "Protista", "Chromista"},
	"Phylum": {"Chordata", "Arthropoda", "Mollusca", "Nematoda", "Echinodermata", "Annelida",
		"Bryophyta", "Tracheophyta", "Ascomycota", "Basidiomycota", "Ciliophora", "Amoebozoa"},
	"Class": {"Mammalia", "Aves", "Reptilia", "Amphibia", "Actinopterygii", "Insecta", "Arachnida",
		"Gastropoda", "Bivalvia", "Pinopsida", "Magnoliopsida", "Liliopsida", "Saccharomycetes", "Agaricomycetes"},
	"Order": {"Primates", "Carnivora", "Rodentia", "Passeriformes", "Coleoptera", "Lepidoptera", "Araneae",
		"Anura", "Squamata", "Poales", "Rosales", "Fabales", "Agaricales", "Helotiales"},
	"Family": {"Hominidae", "Felidae", "Canidae", "Muridae", "Corvidae", "Fringillidae", "Poaceae",
		"Rosaceae", "Fabaceae", "Agaricaceae", "Psathyrellaceae", "Salticidae", "Lycosidae"},
	"Genus": {"Homo", "Pan", "Felis", "Canis", "Mus", "Passer", "Quercus", "Rosa", "Pisum", "Agaricus",
		"Coprinopsis", "Salticus", "Lupus", "Helianthus", "Apis", "Drosophila", "Formica", "Carabus"},
	"Species": {"sapiens", "familiaris", "catus", "musculus", "domestica", "vulgaris", "officinalis",
		"alba", "niger", "rubra", "lutea", "grandis", "minor", "major", "elegans"},
}

var demoSyllables = []string{"al", "be", "ca", "do", "ex", "fa", "gi", "ha", "io", "ju", "ka", "li", "mo",
	"nu", "or", "pi", "qua", "ri", "su", "ti", "ur", "vi", "xa", "yo", "za"}

// GenerateDemo builds a synthetic taxonomy rooted at "Life". The same seed
// always produces the same tree. Names repeat across branches, so search and
// deep links see the same ambiguity real taxonomies have.
func GenerateDemo(seed uint64) *Node {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	root := NewNode("Life")
	root.Level = "Life"
	frontier := []*Node{root}
	for _, rank := range demoPlan {
		var next []*Node
		for _, p := range frontier {
			count := rank.min + rng.IntN(rank.max-rank.min+1)
			for i := 0; i < count; i++ {
				n := NewNode(demoName(rng, rank.level, i))
				n.Level = rank.level
				p.AddChild(n)
				next = append(next, n)
			}
		}
		frontier = next
	}
	return root
}

// demoName returns the i-th name from the level's bank, or a made-up
// syllable name for levels without one.
func demoName(rng *rand.Rand, level string, i int) string {
	if bank := demoNames[level]; len(bank) > 0 {
		return bank[i%len(bank)]
	}
	word := func() string {
		var b strings.Builder
		for n := 2 + rng.IntN(2); n > 0; n-- {
			b.WriteString(demoSyllables[rng.IntN(len(demoSyllables))])
		}
		return b.String()
	}
	if level == "Species" {
		return word() + " " + word()
	}
	return word()
}
