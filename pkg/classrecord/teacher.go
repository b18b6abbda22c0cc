package classrecord

import (
	"context"
	"net/http"
)

func (c *Client) GetTeachingLoad(ctx context.Context) ([]TeachingLoad, error) {
	var out []TeachingLoad
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.TeachingLoad, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEnrolled lists the students enrolled in a class.
func (c *Client) GetEnrolled(ctx context.Context, teachingLoadDetailID int) ([]Enrolled, error) {
	var out []Enrolled
	path := withIDs(c.cfg.Endpoints.ViewEnrolled, teachingLoadDetailID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTeacherInfo(ctx context.Context) (*TeacherInfo, error) {
	var out TeacherInfo
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.TeacherInfo, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAttendance lists the attendance sessions of a class in a term.
func (c *Client) GetAttendance(ctx context.Context, teachingLoadDetailID, termID int) ([]AttendanceSession, error) {
	var out []AttendanceSession
	path := withIDs(c.cfg.Endpoints.AttendanceList, teachingLoadDetailID, termID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostAttendance opens a new attendance session for a class and term.
func (c *Client) PostAttendance(ctx context.Context, req PostAttendance) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.PostAttendance, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordAttendance marks one student present in the open session.
func (c *Client) RecordAttendance(ctx context.Context, req RecordAttendance) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.RecordAttendance, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
