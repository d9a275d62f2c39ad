package model

import "slices"

// Sort returns the todos in display order: pending before completed, pending
// ones with a due date ascending, then pending ones without a due date.
// Completed todos keep the order the server returned.
func Sort(todos []Todo) []Todo {
	out := slices.Clone(todos)
	slices.SortStableFunc(out, compareDisplay)
	return out
}

func compareDisplay(a, b Todo) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	if a.Completed {
		return 0
	}
	ad, bd := a.HasDue(), b.HasDue()
	switch {
	case !ad && !bd:
		return 0
	case !ad:
		return 1
	case !bd:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}
