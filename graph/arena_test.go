// graphdb - String interning arena - tests
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

package graph

import "testing"

func TestInternDeduplicatesEqualStrings(t *testing.T) {
	a, err := OpenStringArena(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStringArena: %v", err)
	}

	// Colliding words from /usr/share/dict/words, same list used to shake
	// out hash-collision handling elsewhere in this codebase's history.
	words := []string{"foo", "bar", "snarf", "Foo", "oink",
		"envEloPES", "VerandahS", "dIMPLES", "WAITS", "CONFERATE", "vizualising"}

	handles := make(map[string]uint64, len(words))
	for _, w := range words {
		h, err := a.Intern(w)
		if err != nil {
			t.Fatalf("Intern(%q): %v", w, err)
		}
		handles[w] = h
	}

	for _, w := range words {
		h, err := a.Intern(w)
		if err != nil {
			t.Fatalf("Intern(%q) again: %v", w, err)
		}
		if h != handles[w] {
			t.Fatalf("Intern(%q) returned a different handle on re-intern: %d != %d", w, h, handles[w])
		}
	}

	// "foo" and "Foo" are distinct strings (interning is case-sensitive,
	// unlike the dictionary this is grounded on) and must get distinct
	// handles.
	if handles["foo"] == handles["Foo"] {
		t.Fatalf("Intern(\"foo\") and Intern(\"Foo\") collapsed to the same handle")
	}

	for _, w := range words {
		got, found := a.Lookup(handles[w])
		if !found {
			t.Fatalf("Lookup(%d) for %q: not found", handles[w], w)
		}
		if got != w {
			t.Fatalf("Lookup(%d) = %q, want %q", handles[w], got, w)
		}
	}
}

func TestInternManyDistinctStringsRoundTrip(t *testing.T) {
	a, err := OpenStringArena(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStringArena: %v", err)
	}

	// No hash collision is forged here: that would mean reaching into
	// the hash function. This verifies the weaker but still load-bearing
	// property: a long run of many distinct strings never loses one to
	// another's probe chain.
	const n = 2000
	for i := 0; i < n; i++ {
		if _, err := a.Intern(syntheticString(i)); err != nil {
			t.Fatalf("Intern: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		s := syntheticString(i)
		h, err := a.Intern(s)
		if err != nil {
			t.Fatalf("Intern: %v", err)
		}
		got, found := a.Lookup(h)
		if !found || got != s {
			t.Fatalf("Lookup after %d interns: got %q, %v, want %q, true", n, got, found, s)
		}
	}
}

func syntheticString(i int) string {
	buf := make([]byte, 0, 16)
	buf = append(buf, "entry-"...)
	for i > 0 || len(buf) == len("entry-") {
		buf = append(buf, byte('0'+i%10))
		i /= 10
	}
	return string(buf)
}

// EOF
