package identity

// Group is a matched component or community: a stable identifier plus its
// sorted member node ids for the current frame.
type Group struct {
	ID      string
	Members []string
}

// PrevGroup is the previous frame's view of a group, as recovered from the
// decoded snapshot.
type PrevGroup struct {
	ID      string
	Members []string
}

// Index holds the current frame's node set with neighbor lists restricted
// to that set. Nodes and every neighbor list are sorted so traversals are
// deterministic.
type Index struct {
	Nodes     []string
	Neighbors map[string][]string

	nodeSet map[string]bool
}
