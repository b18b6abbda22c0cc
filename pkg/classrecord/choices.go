package classrecord

import (
	"context"
	"net/http"
)

// GetGradingComposition returns how a class weighs each grading category.
func (c *Client) GetGradingComposition(ctx context.Context, teachingLoadDetailID int) (*GradingComposition, error) {
	var out GradingComposition
	path := withIDs(c.cfg.Endpoints.GradingComposition, teachingLoadDetailID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCourses(ctx context.Context) ([]Course, error) {
	var out []Course
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Courses, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSemesters(ctx context.Context) ([]Semester, error) {
	var out []Semester
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Semesters, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTerms(ctx context.Context) ([]Term, error) {
	var out []Term
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Terms, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Categories, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
