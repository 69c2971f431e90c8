package social

func contains(set []string, id string) bool {
	for _, member := range set {
		if member == id {
			return true
		}
	}
	return false
}

// addMember returns set with id added and whether it was absent.
func addMember(set []string, id string) ([]string, bool) {
	if contains(set, id) {
		return set, false
	}
	return append(set, id), true
}

// removeMember returns set without any occurrence of id and whether it was present.
func removeMember(set []string, id string) ([]string, bool) {
	out := make([]string, 0, len(set))
	removed := false
	for _, member := range set {
		if member == id {
			removed = true
			continue
		}
		out = append(out, member)
	}
	if !removed {
		return set, false
	}
	return out, true
}
