package services

// Scoring kernel. Pure functions shared by all three test flows; no storage
// access so they stay unit-testable on their own.

// GradeOptionSet grades a generic-bank submission: correct iff the selected
// option IDs equal the correct set exactly, order-independent. No partial
// credit: a missing or extra option scores zero.
func GradeOptionSet(correct, selected []uint) bool {
	if len(correct) == 0 || len(correct) != len(selected) {
		return false
	}
	seen := map[uint]int{}
	for _, id := range correct {
		seen[id]++
	}
	for _, id := range selected {
		seen[id]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

// GradeExactAnswer grades a single-answer submission: exact, case-sensitive
// string equality against the stored correct answer.
func GradeExactAnswer(correct, submitted string) bool {
	return correct != "" && correct == submitted
}

// PointsEarned returns the question's full points on a correct answer and
// zero otherwise.
func PointsEarned(points int, correct bool) int {
	if correct {
		return points
	}
	return 0
}
