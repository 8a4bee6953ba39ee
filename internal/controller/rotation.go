package controller

// Allotments distributes a question quota across subjects as evenly as
// possible: every subject gets quota/count questions and the first
// quota%count subjects (in list order) get one extra.
func Allotments(quota, count int32) []int32 {
	if count <= 0 {
		return nil
	}
	base := quota / count
	extra := quota % count

	allotments := make([]int32, count)
	for i := int32(0); i < count; i++ {
		allotments[i] = base
		if i < extra {
			allotments[i]++
		}
	}
	return allotments
}

// SubjectFor selects the active subject for question n (1-indexed) by
// walking subjects in order and picking the first whose cumulative
// allotment covers n. The result is deterministic for any quota and
// subject count.
func SubjectFor(subjects []string, quota, n int32) string {
	if len(subjects) == 0 {
		return ""
	}

	allotments := Allotments(quota, int32(len(subjects)))
	var cumulative int32
	for i, allotment := range allotments {
		cumulative += allotment
		if cumulative >= n {
			return subjects[i]
		}
	}
	return subjects[len(subjects)-1]
}
