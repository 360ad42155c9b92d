// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/menagerie/services/census/index"
	"github.com/mattn/go-isatty"
)

const (
	msgPatternMissing = "Pattern is missing"
	msgNoMatch        = "No matching animals found"
)

// printJSON writes v indented by two spaces, without HTML escaping.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressOption returns a build option that reports per-country progress
// on w, or nil when w is not a terminal.
func progressOption(w io.Writer) []index.BuildOption {
	if !isTerminal(w) {
		return nil
	}
	return []index.BuildOption{index.WithProgress(func(done, total int) {
		fmt.Fprintf(w, "\rindexing countries %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	})}
}
