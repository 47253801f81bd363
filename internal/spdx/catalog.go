package spdx

import (
	"slices"
	"strings"
	"sync"

	"github.com/github/go-spdx/v2/spdxexp"
)

// osiApproved lists SPDX identifiers flagged isOsiApproved in the SPDX license list.
var osiApproved = []string{
	"0BSD", "AAL", "AFL-1.1", "AFL-1.2", "AFL-2.0", "AFL-2.1", "AFL-3.0",
	"AGPL-3.0-only", "AGPL-3.0-or-later", "APL-1.0", "APSL-1.0", "APSL-1.1",
	"APSL-1.2", "APSL-2.0", "Apache-1.1", "Apache-2.0", "Artistic-1.0",
	"Artistic-1.0-Perl", "Artistic-1.0-cl8", "Artistic-2.0", "BSD-1-Clause",
	"BSD-2-Clause", "BSD-2-Clause-Patent", "BSD-3-Clause", "BSD-3-Clause-LBNL",
	"BSL-1.0", "CAL-1.0", "CAL-1.0-Combined-Work-Exception", "CATOSL-1.1",
	"CDDL-1.0", "CECILL-2.1", "CERN-OHL-P-2.0", "CERN-OHL-S-2.0", "CERN-OHL-W-2.0",
	"CNRI-Python", "CPAL-1.0", "CPL-1.0", "CUA-OPL-1.0", "ECL-1.0", "ECL-2.0",
	"EFL-1.0", "EFL-2.0", "EPL-1.0", "EPL-2.0", "EUDatagrid", "EUPL-1.1",
	"EUPL-1.2", "Entessa", "Fair", "Frameworx-1.0", "GPL-2.0-only",
	"GPL-2.0-or-later", "GPL-3.0-only", "GPL-3.0-or-later", "HPND", "IPA",
	"IPL-1.0", "ISC", "Intel", "LGPL-2.0-only", "LGPL-2.0-or-later",
	"LGPL-2.1-only", "LGPL-2.1-or-later", "LGPL-3.0-only", "LGPL-3.0-or-later",
	"LPL-1.0", "LPL-1.02", "LPPL-1.3c", "LiLiQ-P-1.1", "LiLiQ-R-1.1",
	"LiLiQ-Rplus-1.1", "MIT", "MIT-0", "MIT-Modern-Variant", "MPL-1.0", "MPL-1.1",
	"MPL-2.0", "MPL-2.0-no-copyleft-exception", "MS-PL", "MS-RL", "MirOS",
	"Motosoto", "MulanPSL-2.0", "Multics", "NASA-1.3", "NCSA", "NGPL", "NPOSL-3.0",
	"NTP", "Naumen", "Nokia", "OCLC-2.0", "OFL-1.1", "OFL-1.1-RFN",
	"OFL-1.1-no-RFN", "OGTSL", "OLDAP-2.8", "OSET-PL-2.1", "OSL-1.0", "OSL-2.0",
	"OSL-2.1", "OSL-3.0", "PHP-3.0", "PHP-3.01", "PostgreSQL", "Python-2.0",
	"QPL-1.0", "RPL-1.1", "RPL-1.5", "RPSL-1.0", "RSCPL", "SISSL", "SPL-1.0",
	"SimPL-2.0", "Sleepycat", "UCL-1.0", "UPL-1.0", "Unicode-3.0",
	"Unicode-DFS-2016", "Unlicense", "VSL-1.0", "W3C", "Watcom-1.0", "Xnet",
	"ZPL-2.0", "ZPL-2.1", "Zlib", "eCos-2.0", "jabberpl", "wxWindows",
}

// osiIDs drops any identifier the bundled SPDX catalog does not know, so that
// a stale entry cannot make every satisfaction check fail.
var osiIDs = sync.OnceValue(func() []string {
	_, invalid := spdxexp.ValidateLicenses(osiApproved)
	out := make([]string, 0, len(osiApproved))
	for _, id := range osiApproved {
		if !slices.Contains(invalid, id) {
			out = append(out, id)
		}
	}
	return out
})

// OSIApproved returns the OSI-approved identifiers known to the catalog.
func OSIApproved() []string {
	return slices.Clone(osiIDs())
}

// IsOSIApproved reports whether id, resolved through LicenseID, satisfies the
// OSI-approved set the same way a declared license does. Deprecated
// identifiers such as GPL-2.0 therefore agree with expression evaluation.
// Custom references (LicenseRef-*) are never approved.
func IsOSIApproved(id string) bool {
	canon, ok := LicenseID(id)
	if !ok {
		return false
	}
	expr, err := Parse(canon, Strict)
	if err != nil {
		return false
	}
	return expr.Satisfies(osiIDs())
}

// LicenseID resolves name to its canonical SPDX license identifier. Compound
// expressions and custom references are rejected.
func LicenseID(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t()/") {
		return "", false
	}
	if strings.HasPrefix(name, "LicenseRef-") || strings.HasPrefix(name, "DocumentRef-") {
		return "", false
	}
	ids, err := spdxexp.ExtractLicenses(name)
	if err != nil || len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}
