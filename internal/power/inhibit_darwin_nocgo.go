//go:build darwin && !cgo

package power

func platformCandidates() []candidate {
	return []candidate{
		{name: "caffeinate", new: newCaffeinateProcess},
	}
}
