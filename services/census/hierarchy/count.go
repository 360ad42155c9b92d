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

import "fmt"

// CountChildren returns a copy of countries where every country name is
// suffixed with " [N]" (N = number of people) and every person name with
// " [N]" (N = number of animals). Animals are copied unchanged.
//
// Returns nil for an empty dataset.
func CountChildren(countries []Country) []Country {
	if len(countries) == 0 {
		return nil
	}

	out := make([]Country, 0, len(countries))
	for _, c := range countries {
		people := make([]Person, 0, len(c.People))
		for _, p := range c.People {
			animals := make([]Animal, len(p.Animals))
			copy(animals, p.Animals)
			people = append(people, Person{
				Name:    fmt.Sprintf("%s [%d]", p.Name, len(p.Animals)),
				Animals: animals,
			})
		}
		out = append(out, Country{
			Name:   fmt.Sprintf("%s [%d]", c.Name, len(c.People)),
			People: people,
		})
	}
	return out
}
