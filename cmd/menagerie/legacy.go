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

import "strings"

// rewriteLegacyArgs maps the flag-style invocations "--filter=<pattern>"
// and "--count" onto the filter and count subcommands. Only the first such
// argument is rewritten; everything else passes through unchanged.
func rewriteLegacyArgs(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		var repl []string
		switch {
		case arg == "--count":
			repl = []string{"count"}
		case arg == "--filter":
			repl = []string{"filter"}
		case strings.HasPrefix(arg, "--filter="):
			repl = []string{"filter", "--", strings.TrimPrefix(arg, "--filter=")}
		default:
			continue
		}
		out := make([]string, 0, len(args)+2)
		out = append(out, args[:i]...)
		out = append(out, repl...)
		return append(out, args[i+1:]...)
	}
	return args
}
