// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hierarchy

// Seed returns the built-in dataset used when no dataset file is configured.
// Each call returns a fresh copy.
func Seed() []Country {
	return []Country{
		{
			Name: "Dillauti",
			People: []Person{
				{Name: "Winifred Graves", Animals: animals("Anoa", "Duck", "Narwhal", "Badger", "Cobra", "Crow")},
				{Name: "Blanche Viciani", Animals: animals("Barbet", "Rhea", "Snakes", "Antelope", "Echidna", "Crow", "Guinea Fowl", "Deer Mouse")},
				{Name: "Philip Murray", Animals: animals("Sand Dollar", "Buzzard", "Elephant", "Xenops", "Dormouse", "Anchovy", "Dinosaur")},
				{Name: "Bobby Ristori", Animals: animals("Kowari", "Caecilian", "Common Genet", "Chipmunk", "Aardwolf", "Przewalski's Horse", "Badger", "Sand Cat", "Linne's Two-toed Sloth")},
				{Name: "Louise Pinzauti", Animals: animals("Manta Ray", "Nubian Ibex", "Warbler", "Duck", "Mice")},
			},
		},
		{
			Name: "Tohabdal",
			People: []Person{
				{Name: "Effie Houghton", Animals: animals("Zebra", "Ring-tailed Lemur", "Fly", "Blue Iguana", "Emu", "African Wild Ass", "Numbat")},
				{Name: "Essie Bennett", Animals: animals("Aldabra Tortoise", "Patagonian Toothfish", "Giant Panda", "Goat", "Quahog", "Collared Lemur", "Aldabra Tortoise")},
				{Name: "Owen Bongini", Animals: animals("Zebrashark")},
				{Name: "Alexander Fleury", Animals: animals("Dolphin", "Gelada", "Woodpecker", "Pig", "Chickens", "Aardvark", "Seal", "Hippopotamus")},
			},
		},
		{
			Name: "Uzuzozne",
			People: []Person{
				{Name: "Harold Patton", Animals: animals("Bearded Dragon", "Przewalski's Horse", "Hyena", "Beaked Whale", "Giraffe", "Cat")},
				{Name: "Millie Lapini", Animals: animals("Dog", "Caracal", "Bobcat", "Cattle", "Caterpillar")},
				{Name: "Lillian Calamandrei", Animals: []Animal{}},
			},
		},
		{
			Name: "Zuhackog",
			People: []Person{
				{Name: "Elva Baroni", Animals: animals("Silkworm", "Zebu", "Peccary", "Mole", "Bluebird", "Okapi", "Aardvark")},
				{Name: "Johnny Graziani", Animals: animals("Dromedary", "Snowy Owl", "Lynx", "Spotted Hyena", "Crab", "Chameleon")},
				{Name: "Herman Christensen", Animals: animals("Fox", "Wolf", "Badger", "Raccoon", "Ocelot")},
			},
		},
		{
			Name: "Satanwi",
			People: []Person{
				{Name: "Anthony Bruno", Animals: animals("Caiman", "Falcon", "Ferret", "Llama", "Dunlin")},
				{Name: "Cora Mercier", Animals: animals("Kingfisher", "Penguin", "Cuttlefish", "Eagle", "Rattlesnake")},
			},
		},
	}
}

func animals(names ...string) []Animal {
	out := make([]Animal, len(names))
	for i, n := range names {
		out[i] = Animal{Name: n}
	}
	return out
}
