package emit

import (
	"sort"
	"strings"
)

// importSet accumulates the import lines a unit needs while its body is
// rendered, then prints them grouped and sorted: plain imports first,
// then from-imports, stdlib before third-party before local modules.
type importSet struct {
	plain map[string]bool            // import X
	from  map[string]map[string]bool // from X import a, b
}

func newImportSet() *importSet {
	return &importSet{plain: map[string]bool{}, from: map[string]map[string]bool{}}
}

func (s *importSet) add(module string) { s.plain[module] = true }

func (s *importSet) addFrom(module, name string) {
	if s.from[module] == nil {
		s.from[module] = map[string]bool{}
	}
	s.from[module][name] = true
}

func (s *importSet) render() string {
	var b strings.Builder

	plains := make([]string, 0, len(s.plain))
	for m := range s.plain {
		plains = append(plains, m)
	}
	sort.Strings(plains)
	for _, m := range plains {
		b.WriteString("import ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	if len(plains) > 0 && len(s.from) > 0 {
		b.WriteString("\n")
	}

	modules := make([]string, 0, len(s.from))
	for m := range s.from {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		names := make([]string, 0, len(s.from[m]))
		for n := range s.from[m] {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString("from ")
		b.WriteString(m)
		b.WriteString(" import ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}
	return b.String()
}
