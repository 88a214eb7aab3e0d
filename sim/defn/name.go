/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Name is a routing key: an opaque '/'-separated byte-string like
// "/prefix/seq=4". Only the tables interpret its structure, and only for
// longest-prefix match.
type Name string

// Hash returns a stable 64-bit hash used as a table key.
func (n Name) Hash() uint64 {
	return xxhash.Sum64String(string(n))
}

// Prefix returns the first depth components of the name.
func (n Name) Prefix(depth int) Name {
	s := string(n)
	if len(s) == 0 || s[0] != '/' {
		return n
	}
	idx := 0
	for i := 0; i < depth; i++ {
		next := strings.IndexByte(s[idx+1:], '/')
		if next < 0 {
			return n
		}
		idx += next + 1
	}
	return Name(s[:idx])
}

// Depth returns the number of components in the name.
func (n Name) Depth() int {
	s := string(n)
	if len(s) == 0 || s == "/" {
		return 0
	}
	return strings.Count(s, "/")
}

// IsPrefixOf reports whether n is a component-wise prefix of other.
func (n Name) IsPrefixOf(other Name) bool {
	ns, os := string(n), string(other)
	if !strings.HasPrefix(os, ns) {
		return false
	}
	return len(os) == len(ns) || os[len(ns)] == '/'
}

// Append joins a component onto the name.
func (n Name) Append(component string) Name {
	return Name(string(n) + "/" + component)
}
