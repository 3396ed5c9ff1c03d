package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed package version: dotted numeric release segments
// with an optional pre-release, post-release, or dev suffix.
type Version struct {
	Release []int
	Pre     string // normalized pre-release tag: "a", "b", "rc" ("" if none)
	PreNum  int
	Post    int // -1 if absent
	Dev     int // -1 if absent
	Local   string
}

var versionRe = regexp.MustCompile(`(?i)^v?` +
	`(\d+(?:\.\d+)*)` + // release segments
	`(?:[._-]?(a|b|c|rc|alpha|beta|pre|preview)[._-]?(\d*))?` + // pre-release
	`(?:[._-]?(post|rev|r)[._-]?(\d*))?` + // post-release
	`(?:[._-]?(dev)[._-]?(\d*))?` + // dev release
	`(?:\+([a-z0-9]+(?:[._-][a-z0-9]+)*))?$`) // local segment

// preAliases maps spelled-out pre-release tags to their canonical form.
var preAliases = map[string]string{
	"alpha": "a", "beta": "b", "c": "rc", "pre": "rc", "preview": "rc",
}

// ParseVersion parses a version string. It accepts the common dotted
// numeric form with optional pre/post/dev suffixes and rejects anything
// else.
func ParseVersion(s string) (Version, error) {
	v := Version{Post: -1, Dev: -1}

	m := versionRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return v, fmt.Errorf("malformed version %q", s)
	}

	for _, seg := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return v, fmt.Errorf("malformed version %q: %w", s, err)
		}
		v.Release = append(v.Release, n)
	}

	if m[2] != "" {
		tag := strings.ToLower(m[2])
		if canon, ok := preAliases[tag]; ok {
			tag = canon
		}
		v.Pre = tag
		if m[3] != "" {
			v.PreNum, _ = strconv.Atoi(m[3])
		}
	}
	if m[4] != "" {
		v.Post = 0
		if m[5] != "" {
			v.Post, _ = strconv.Atoi(m[5])
		}
	}
	if m[6] != "" {
		v.Dev = 0
		if m[7] != "" {
			v.Dev, _ = strconv.Atoi(m[7])
		}
	}
	v.Local = m[8]

	return v, nil
}

// Compare returns -1, 0, or 1 ordering v against other.
// Shorter release tuples are zero-padded; pre-releases sort before the
// release they qualify, dev releases before pre-releases, post-releases
// after. The local segment is ignored for ordering.
func (v Version) Compare(other Version) int {
	n := len(v.Release)
	if len(other.Release) > n {
		n = len(other.Release)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.Release) {
			a = v.Release[i]
		}
		if i < len(other.Release) {
			b = other.Release[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	// Same release: order by phase (dev < pre < final < post).
	pa, pb := v.phase(), other.phase()
	if pa != pb {
		if pa < pb {
			return -1
		}
		return 1
	}

	switch pa {
	case phasePre:
		if c := strings.Compare(v.Pre, other.Pre); c != 0 {
			return c
		}
		return compareInt(v.PreNum, other.PreNum)
	case phaseDev:
		return compareInt(v.Dev, other.Dev)
	case phasePost:
		return compareInt(v.Post, other.Post)
	}
	return 0
}

const (
	phaseDev = iota
	phasePre
	phaseFinal
	phasePost
)

func (v Version) phase() int {
	switch {
	case v.Dev >= 0 && v.Pre == "":
		return phaseDev
	case v.Pre != "":
		return phasePre
	case v.Post >= 0:
		return phasePost
	default:
		return phaseFinal
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// NextCompatible returns the exclusive upper bound implied by a
// compatible-release specifier (~=): the release with its second-to-last
// segment incremented and the last dropped. `~= 2.4.1` caps at 2.5,
// `~= 1.4` caps at 2.0.
func (v Version) NextCompatible() Version {
	upper := Version{Post: -1, Dev: -1}
	if len(v.Release) < 2 {
		upper.Release = []int{v.Release[0] + 1}
		return upper
	}
	upper.Release = append(upper.Release, v.Release[:len(v.Release)-2]...)
	upper.Release = append(upper.Release, v.Release[len(v.Release)-2]+1)
	return upper
}

// Satisfies reports whether version v meets the given specifier.
// Specifiers with malformed versions never match.
func (v Version) Satisfies(s Specifier) bool {
	sv, err := ParseVersion(s.Version)
	if err != nil {
		return false
	}
	switch s.Op {
	case OpEq, OpArbitraryEq:
		return v.Compare(sv) == 0
	case OpNotEq:
		return v.Compare(sv) != 0
	case OpLess:
		return v.Compare(sv) < 0
	case OpLessEq:
		return v.Compare(sv) <= 0
	case OpGreater:
		return v.Compare(sv) > 0
	case OpGreaterEq:
		return v.Compare(sv) >= 0
	case OpCompatible:
		return v.Compare(sv) >= 0 && v.Compare(sv.NextCompatible()) < 0
	}
	return false
}

func (v Version) String() string {
	parts := make([]string, len(v.Release))
	for i, r := range v.Release {
		parts[i] = strconv.Itoa(r)
	}
	s := strings.Join(parts, ".")
	if v.Pre != "" {
		s += fmt.Sprintf("%s%d", v.Pre, v.PreNum)
	}
	if v.Post >= 0 {
		s += fmt.Sprintf(".post%d", v.Post)
	}
	if v.Dev >= 0 {
		s += fmt.Sprintf(".dev%d", v.Dev)
	}
	if v.Local != "" {
		s += "+" + v.Local
	}
	return s
}
