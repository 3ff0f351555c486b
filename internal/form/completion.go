package form

// Completion returns the share of truthy fields as a whole percentage.
// All fields weigh the same whether required or not.
func (s *State) Completion() int {
	total := len(fieldTable)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, d := range fieldTable {
		if d.acc.filled(s) {
			completed++
		}
	}
	return (completed*100 + total/2) / total
}

// SectionCompletion is Completion restricted to one section.
func (s *State) SectionCompletion(sec Section) int {
	total, completed := 0, 0
	for _, d := range fieldTable {
		if d.ref.Section != sec {
			continue
		}
		total++
		if d.acc.filled(s) {
			completed++
		}
	}
	if total == 0 {
		return 0
	}
	return (completed*100 + total/2) / total
}
