package main

import "testing"

func TestRunRendersPages(t *testing.T) {
	for _, path := range []string{"/", "/products?limit=4", "/products/1?tab=features", "/checkout"} {
		if code := run(path, "dark", "../../templates"); code != 0 {
			t.Fatalf("%s: exit code %d", path, code)
		}
	}
}
