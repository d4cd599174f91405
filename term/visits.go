package term

// visitsThreshold is how many pairs a traversal meets before it
// starts remembering them.  Acyclic terms this small never pay for
// the map.
const visitsThreshold = 256

// Visits remembers the pairs of structured terms that a traversal of
// two terms at once has met, so that traversals of cyclic terms end.
// The zero value is ready to use.
type Visits struct {
	n    int
	seen map[[2]Term]bool
}

// Again reports whether x and y were met before and records them if
// not.  A pair met again is part of a cycle (or shared structure
// already handled), so the traversal treats it as matching.
func (vs *Visits) Again(x, y Term) bool {
	vs.n++
	if vs.n < visitsThreshold {
		return false
	}
	if vs.seen == nil {
		vs.seen = make(map[[2]Term]bool)
	}
	k := [2]Term{x, y}
	if vs.seen[k] {
		return true
	}
	vs.seen[k] = true
	return false
}
