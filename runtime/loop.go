package runtime

// UpdateForLoop reconciles the entries of a loop by position. Entries that
// exist in both prev and next are updated in place, new trailing entries are
// built and inserted before anchor, and surplus trailing entries are removed.
// It returns the live entries.
func UpdateForLoop[S any](anchor Node, prev []*ViewState[S], next []S, build func(S) *ViewState[S]) []*ViewState[S] {
	keep := min(len(prev), len(next))
	for i := 0; i < keep; i++ {
		prev[i].Update(next[i])
	}
	for i := keep; i < len(prev); i++ {
		prev[i].Root.Remove()
		prev[i] = nil
	}
	out := prev[:keep]
	for i := keep; i < len(next); i++ {
		st := build(next[i])
		anchor.Before(st.Root)
		out = append(out, st)
	}
	return out
}
