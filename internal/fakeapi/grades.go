package fakeapi

import "math"

// TermResult is a student's standing in one class for one term.
type TermResult struct {
	// Percent per category id, score over items times 100.
	Percent map[int]float64
	// Grade is the weighted average over the categories that have at least
	// one grading so far.
	Grade float64
	// Graded is false when the term has no gradings at all.
	Graded bool
}

// Remarks labels a final grade.
func Remarks(grade float64) string {
	if grade >= PassingGrade {
		return "Passed"
	}
	return "Failed"
}

// ComputeTerm grades an enrollment for one term. Missing scores count as
// zero.
func (s *Store) ComputeTerm(enrollment Enrollment, termID int) TermResult {
	type total struct{ score, items float64 }
	totals := map[int]*total{}

	for _, g := range s.Gradings(enrollment.DetailID, termID, 0) {
		t, ok := totals[g.CategoryID]
		if !ok {
			t = &total{}
			totals[g.CategoryID] = t
		}
		t.items += float64(g.Items)
		if sc, ok := s.ScoreFor(g.ID, enrollment.ID); ok {
			t.score += sc.Score
		}
	}

	res := TermResult{Percent: map[int]float64{}}
	var weighted, weightSum float64
	for _, w := range s.Weights(enrollment.DetailID) {
		t, ok := totals[w.CategoryID]
		if !ok || t.items == 0 {
			continue
		}
		pct := t.score / t.items * 100
		res.Percent[w.CategoryID] = round2(pct)
		weighted += pct * w.Percentage
		weightSum += w.Percentage
	}
	if weightSum > 0 {
		res.Grade = round2(weighted / weightSum)
		res.Graded = true
	}
	return res
}

// SemesterResult averages the graded terms of an enrollment.
type SemesterResult struct {
	Midterm  TermResult
	Final    TermResult
	Grade    float64
	Complete bool
}

func (s *Store) ComputeSemester(enrollment Enrollment) SemesterResult {
	res := SemesterResult{
		Midterm: s.ComputeTerm(enrollment, TermMidterm),
		Final:   s.ComputeTerm(enrollment, TermFinal),
	}

	var sum float64
	var n int
	for _, t := range []TermResult{res.Midterm, res.Final} {
		if t.Graded {
			sum += t.Grade
			n++
		}
	}
	if n > 0 {
		res.Grade = round2(sum / float64(n))
	}
	res.Complete = n == 2
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
