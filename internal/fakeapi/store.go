package fakeapi

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Store holds every record of the dev server in memory. All methods are safe
// for concurrent use.
type Store struct {
	mu sync.RWMutex

	users         map[string]*User // by subject
	usernames     map[string]string
	refreshTokens map[string]*RefreshToken // by fingerprint
	pending       map[string]*PendingRegistration

	courses    []Course
	semesters  []Semester
	terms      []Term
	categories []Category
	subjects   map[int]Subject

	loads       map[int]*TeachingLoad
	details     map[int]*LoadDetail
	weights     map[int][]Weight // by load detail
	enrollments map[int]*Enrollment
	gradings    map[int]*Grading
	scores      map[int]*Score

	nextStudentID  int
	nextEnrollment int
	nextGrading    int
	nextScore      int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         map[string]*User{},
		usernames:     map[string]string{},
		refreshTokens: map[string]*RefreshToken{},
		pending:       map[string]*PendingRegistration{},
		subjects:      map[int]Subject{},
		loads:         map[int]*TeachingLoad{},
		details:       map[int]*LoadDetail{},
		weights:       map[int][]Weight{},
		enrollments:   map[int]*Enrollment{},
		gradings:      map[int]*Grading{},
		scores:        map[int]*Score{},
		nextStudentID: 2021001,
	}
}

// ============================================================================
// Users
// ============================================================================

func (s *Store) UserBySubject(subject string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[subject]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (s *Store) UserByUsername(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.usernames[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return *s.users[sub], nil
}

func (s *Store) UserByStudentID(studentID int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.StudentID == studentID {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) UserByTeacherID(teacherID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TeacherID == teacherID {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

// CreateUser inserts u. Students without a StudentID are assigned the next
// one. The stored user is returned.
func (s *Store) CreateUser(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[u.Username]; taken {
		return User{}, ErrAlreadyExists
	}
	if _, taken := s.users[u.Subject]; taken {
		return User{}, ErrAlreadyExists
	}
	if u.StudentID == 0 && u.TeacherID == "" {
		u.StudentID = s.nextStudentID
		s.nextStudentID++
	}

	s.users[u.Subject] = &u
	s.usernames[u.Username] = u.Subject
	return u, nil
}

// ============================================================================
// Refresh tokens
// ============================================================================

func (s *Store) CreateRefreshToken(t RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshTokens[t.Hash] = &t
}

// RotateRefreshToken revokes the token with oldHash and stores next in one
// step. It returns the subject the old token belonged to, or ErrNotFound when
// the old token is unknown, revoked or expired at now.
func (s *Store) RotateRefreshToken(oldHash string, next RefreshToken, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refreshTokens[oldHash]
	if !ok || old.Revoked || !now.Before(old.ExpiresAt) {
		return "", ErrNotFound
	}
	old.Revoked = true

	next.Subject = old.Subject
	s.refreshTokens[next.Hash] = &next
	return old.Subject, nil
}

// PurgeRefreshTokens drops revoked and expired tokens and reports how many
// went.
func (s *Store) PurgeRefreshTokens(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for hash, t := range s.refreshTokens {
		if t.Revoked || !now.Before(t.ExpiresAt) {
			delete(s.refreshTokens, hash)
			n++
		}
	}
	return n
}

// ============================================================================
// Registrations
// ============================================================================

func (s *Store) CreatePending(p PendingRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[p.ID] = &p
}

// PurgePending drops expired registrations and reports how many went.
func (s *Store) PurgePending(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, p := range s.pending {
		if !now.Before(p.ExpiresAt) {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// ClaimPending removes and returns the first unexpired registration accepted
// by match.
func (s *Store) ClaimPending(now time.Time, match func(PendingRegistration) bool) (PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.pending {
		if !now.Before(p.ExpiresAt) {
			delete(s.pending, id)
			continue
		}
		if match(*p) {
			delete(s.pending, id)
			return *p, nil
		}
	}
	return PendingRegistration{}, ErrNotFound
}

// ============================================================================
// Choices
// ============================================================================

func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.courses)
}

func (s *Store) Course(id int) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return Course{}, ErrNotFound
}

func (s *Store) Semesters() []Semester {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.semesters)
}

func (s *Store) Semester(id int) (Semester, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sem := range s.semesters {
		if sem.ID == id {
			return sem, nil
		}
	}
	return Semester{}, ErrNotFound
}

func (s *Store) Terms() []Term {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.terms)
}

func (s *Store) Term(id int) (Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.terms {
		if t.ID == id {
			return t, nil
		}
	}
	return Term{}, ErrNotFound
}

func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

func (s *Store) Category(id int) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

// ============================================================================
// Classes
// ============================================================================

func (s *Store) Subject(id int) (Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subjects[id]
	if !ok {
		return Subject{}, ErrNotFound
	}
	return sub, nil
}

// TeachingLoads returns the loads of a teacher ordered by id.
func (s *Store) TeachingLoads(teacherID string) []TeachingLoad {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []TeachingLoad
	for _, l := range s.loads {
		if l.TeacherID == teacherID {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b TeachingLoad) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) TeachingLoad(id int) (TeachingLoad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loads[id]
	if !ok {
		return TeachingLoad{}, ErrNotFound
	}
	return *l, nil
}

// LoadDetails returns the classes of a teaching load ordered by id.
func (s *Store) LoadDetails(loadID int) []LoadDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LoadDetail
	for _, d := range s.details {
		if d.LoadID == loadID {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b LoadDetail) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) LoadDetail(id int) (LoadDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.details[id]
	if !ok {
		return LoadDetail{}, ErrNotFound
	}
	return *d, nil
}

func (s *Store) LoadDetailByKey(key string) (LoadDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.details {
		if d.Key == key {
			return *d, nil
		}
	}
	return LoadDetail{}, ErrNotFound
}

// TeacherOwns reports whether the class belongs to one of the teacher's
// loads.
func (s *Store) TeacherOwns(teacherID string, detailID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.details[detailID]
	if !ok {
		return false
	}
	l, ok := s.loads[d.LoadID]
	return ok && l.TeacherID == teacherID
}

// Weights returns the grading composition of a class.
func (s *Store) Weights(detailID int) []Weight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.weights[detailID])
}

// ============================================================================
// Enrollments
// ============================================================================

// Enroll adds the student to the class. ErrAlreadyExists if already enrolled.
func (s *Store) Enroll(studentID, detailID int) (Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.details[detailID]; !ok {
		return Enrollment{}, ErrNotFound
	}
	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.DetailID == detailID {
			return Enrollment{}, ErrAlreadyExists
		}
	}

	s.nextEnrollment++
	e := &Enrollment{ID: s.nextEnrollment, StudentID: studentID, DetailID: detailID}
	s.enrollments[e.ID] = e
	return *e, nil
}

func (s *Store) Enrollment(studentID, detailID int) (Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.DetailID == detailID {
			return *e, nil
		}
	}
	return Enrollment{}, ErrNotEnrolled
}

// EnrollmentsByClass returns a class roster ordered by enrollment id.
func (s *Store) EnrollmentsByClass(detailID int) []Enrollment {
	return s.filterEnrollments(func(e *Enrollment) bool { return e.DetailID == detailID })
}

// EnrollmentsByStudent returns a student's classes ordered by enrollment id.
func (s *Store) EnrollmentsByStudent(studentID int) []Enrollment {
	return s.filterEnrollments(func(e *Enrollment) bool { return e.StudentID == studentID })
}

func (s *Store) filterEnrollments(keep func(*Enrollment) bool) []Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Enrollment
	for _, e := range s.enrollments {
		if keep(e) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b Enrollment) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ============================================================================
// Gradings and scores
// ============================================================================

// CreateGrading assigns g an id and stores it.
func (s *Store) CreateGrading(g Grading) Grading {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGrading++
	g.ID = s.nextGrading
	s.gradings[g.ID] = &g
	return g
}

// Gradings returns the gradings of a class in a term ordered by id.
// categoryID 0 matches every category.
func (s *Store) Gradings(detailID, termID, categoryID int) []Grading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Grading
	for _, g := range s.gradings {
		if g.DetailID != detailID || g.TermID != termID {
			continue
		}
		if categoryID != 0 && g.CategoryID != categoryID {
			continue
		}
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Grading) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// RecordScore stores a score. ErrAlreadyExists if the enrollment already has
// one for that grading.
func (s *Store) RecordScore(sc Score) (Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gradings[sc.GradingID]; !ok {
		return Score{}, ErrNotFound
	}
	for _, existing := range s.scores {
		if existing.GradingID == sc.GradingID && existing.EnrollmentID == sc.EnrollmentID {
			return Score{}, ErrAlreadyExists
		}
	}

	s.nextScore++
	sc.ID = s.nextScore
	s.scores[sc.ID] = &sc
	return sc, nil
}

func (s *Store) ScoreFor(gradingID, enrollmentID int) (Score, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.scores {
		if sc.GradingID == gradingID && sc.EnrollmentID == enrollmentID {
			return *sc, true
		}
	}
	return Score{}, false
}
