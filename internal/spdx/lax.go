package spdx

import (
	"regexp"
	"sort"
	"strings"
)

// impreciseNames maps license names commonly found in package metadata onto
// SPDX identifiers. Keys are lower-case.
var impreciseNames = map[string]string{
	"apache license, version 2.0": "Apache-2.0",
	"apache license version 2.0":  "Apache-2.0",
	"apache license 2.0":          "Apache-2.0",
	"apache 2.0":                  "Apache-2.0",
	"apache v2":                   "Apache-2.0",
	"the mit license":             "MIT",
	"mit license":                 "MIT",
	"new bsd license":             "BSD-3-Clause",
	"bsd 3-clause":                "BSD-3-Clause",
	"3-clause bsd":                "BSD-3-Clause",
	"simplified bsd license":      "BSD-2-Clause",
	"bsd 2-clause":                "BSD-2-Clause",
	"2-clause bsd":                "BSD-2-Clause",
	"mozilla public license 2.0":  "MPL-2.0",
	"mpl 2.0":                     "MPL-2.0",
	"isc license":                 "ISC",
	"zlib license":                "Zlib",
	"the unlicense":               "Unlicense",
	"gplv2":                       "GPL-2.0-only",
	"gplv3":                       "GPL-3.0-only",
	"lgplv3":                      "LGPL-3.0-only",
}

var impreciseRe = func() *regexp.Regexp {
	names := make([]string, 0, len(impreciseNames))
	for n := range impreciseNames {
		names = append(names, regexp.QuoteMeta(n))
	}
	// Longest first so "apache license 2.0" wins over "apache 2.0".
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return regexp.MustCompile(`(?i)(^|[\s()/])(` + strings.Join(names, "|") + `)($|[\s()/])`)
}()

func replaceImpreciseNames(raw string) string {
	return impreciseRe.ReplaceAllStringFunc(raw, func(m string) string {
		sub := impreciseRe.FindStringSubmatch(m)
		if len(sub) != 4 {
			return m
		}
		id, ok := impreciseNames[strings.ToLower(sub[2])]
		if !ok {
			return m
		}
		return sub[1] + id + sub[3]
	})
}
