package classrecord

import "github.com/aussiebroadwan/classrecord/pkg/jwtx"

// Destination is where a consumer should send the user after login.
type Destination string

const (
	DestinationStudentDashboard Destination = "student_dashboard"
	DestinationTeacherDashboard Destination = "teacher_dashboard"
	DestinationUnauthorized     Destination = "unauthorized"
)

// RoleToDestination maps a role claim to its landing destination. Unknown
// and empty roles are unauthorized.
func RoleToDestination(role string) Destination {
	switch role {
	case jwtx.RoleStudent:
		return DestinationStudentDashboard
	case jwtx.RoleTeacher:
		return DestinationTeacherDashboard
	default:
		return DestinationUnauthorized
	}
}
