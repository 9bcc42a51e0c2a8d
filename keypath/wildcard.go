package keypath

import (
	"strings"

	"github.com/gobwas/glob"
)

// CompiledDependency is a live-expression dependency declaration compiled
// once at registration time so that repeated change events can be matched
// cheaply against it.
type CompiledDependency struct {
	raw        string
	isWildcard bool
	prefix     string
	g          glob.Glob
}

// hasGlobMeta reports whether s contains characters gobwas/glob treats
// specially outside of the `[*]` wildcard itself ('[' ']' are glob
// char-class delimiters, so a literal array index like "items[0]" before
// the wildcard cannot be compiled safely).
func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "[]{}?")
}

// CompileDependency compiles a dependsOn entry. An entry containing `[*]`
// matches the path before the first `[*]` itself (a write of the whole
// array) and any path that continues from it with an index bracket, e.g.
// "items[*].price" matches "items", "items[2]" and "items[2].price" but
// not the sibling "items.count". When that prefix contains no further index
// brackets, it is additionally compiled into a glob.Glob for fast repeated
// matching against large change bursts.
func CompileDependency(dep string) CompiledDependency {
	idx := strings.Index(dep, "[*]")
	if idx < 0 {
		return CompiledDependency{raw: dep}
	}
	prefix := dep[:idx]
	cd := CompiledDependency{raw: dep, isWildcard: true, prefix: prefix}
	if !hasGlobMeta(prefix) {
		if g, err := glob.Compile(prefix + `\[*`); err == nil {
			cd.g = g
		}
	}
	return cd
}

// Matches reports whether path satisfies the compiled dependency: exact
// match for non-wildcard dependencies; for wildcard ones, the prefix itself
// or the prefix followed by an index bracket (see CompileDependency).
func (c CompiledDependency) Matches(path string) bool {
	if !c.isWildcard {
		return c.raw == path
	}
	if c.g != nil {
		return path == c.prefix || c.g.Match(path)
	}
	return path == c.prefix || strings.HasPrefix(path, c.prefix+"[")
}

// Raw returns the original dependency string.
func (c CompiledDependency) Raw() string { return c.raw }

// IsWildcard reports whether this dependency contains a `[*]` segment.
func (c CompiledDependency) IsWildcard() bool { return c.isWildcard }
