package placement

import "sort"

// DefaultStrategy is used when the caller does not name one.
const DefaultStrategy = "force"

var strategies = map[string]func() Strategy{
	"force":  func() Strategy { return NewForce() },
	"radial": func() Strategy { return NewRadial() },
}

// ForName returns a fresh strategy instance for the given name, or false if
// the name is unknown. An empty name selects DefaultStrategy.
func ForName(name string) (Strategy, bool) {
	if name == "" {
		name = DefaultStrategy
	}
	factory, ok := strategies[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
