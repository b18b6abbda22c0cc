package scan

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
)

// ErrInvalidStudentID is reported to OnReject for attendance codes that are
// not a positive base-10 integer.
var ErrInvalidStudentID = errors.New("scan: invalid student id")

// Enroller is the part of *classrecord.Client the enrollment scanner needs.
type Enroller interface {
	EnrollSubject(ctx context.Context, hashKey string) (*classrecord.MessageResponse, error)
}

// AttendanceRecorder is the part of *classrecord.Client the attendance
// scanner needs.
type AttendanceRecorder interface {
	RecordAttendance(ctx context.Context, req classrecord.RecordAttendance) (*classrecord.MessageResponse, error)
}

// NewEnrollScanner enrolls the student in the class whose hash is scanned.
func NewEnrollScanner(client Enroller, opts ...Option) *Debouncer {
	return New(func(ctx context.Context, code string) error {
		_, err := client.EnrollSubject(ctx, code)
		return err
	}, opts...)
}

// NewAttendanceScanner marks the scanned student present in the given class
// and term. Codes that are not student ids are rejected without disarming.
func NewAttendanceScanner(client AttendanceRecorder, teachingLoadDetailID, termID int, opts ...Option) *Debouncer {
	action := func(ctx context.Context, code string) error {
		studentID, err := ParseStudentID(code)
		if err != nil {
			return err
		}
		_, err = client.RecordAttendance(ctx, classrecord.RecordAttendance{
			TeachingLoadDetailID: teachingLoadDetailID,
			TermID:               termID,
			StudentID:            studentID,
		})
		return err
	}

	opts = append([]Option{WithValidator(func(code string) error {
		_, err := ParseStudentID(code)
		return err
	})}, opts...)

	return New(action, opts...)
}

// ParseStudentID parses a scanned attendance code.
func ParseStudentID(code string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || id <= 0 {
		return 0, ErrInvalidStudentID
	}
	return id, nil
}
