package classrecord

import (
	"context"
	"errors"
	"net/http"
)

func (c *Client) GetSubjectsEnrolled(ctx context.Context) ([]SubjectEnrolled, error) {
	var out []SubjectEnrolled
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.EnrolledSubjects, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSubjectTermGrades(ctx context.Context, teachingLoadDetailID, termID int) (*TermGrades, error) {
	var out TermGrades
	path := withIDs(c.cfg.Endpoints.TermGrade, teachingLoadDetailID, termID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSubjectSemGrades(ctx context.Context, teachingLoadDetailID int) (*SemGrades, error) {
	var out SemGrades
	path := withIDs(c.cfg.Endpoints.SemGrade, teachingLoadDetailID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetScoresPerCategory(ctx context.Context, teachingLoadDetailID, termID, categoryID int) ([]ScoreEntry, error) {
	var out []ScoreEntry
	path := withIDs(c.cfg.Endpoints.ScoresPerCategory, teachingLoadDetailID, termID, categoryID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnrollSubject enrolls the student in the class identified by hashKey, the
// value encoded in the class QR code.
func (c *Client) EnrollSubject(ctx context.Context, hashKey string) (*MessageResponse, error) {
	if hashKey == "" {
		return nil, errors.New("hash key is required")
	}

	var out MessageResponse
	err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.EnrollSubject, nil, EnrollmentHash{HashKey: hashKey}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStudentInfo(ctx context.Context) (*StudentInfo, error) {
	var out StudentInfo
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.StudentInfo, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
