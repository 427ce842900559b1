package institute

import "time"

type Centre struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `json:"isActive,omitempty"`
}

type Course struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	DurationWks int     `json:"durationWeeks,omitempty"`
	Fee         float64 `json:"fee,omitempty"`
	CentreID    int64   `json:"centreId,omitempty"`
	IsActive    bool    `json:"isActive,omitempty"`
}

type Exam struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	CourseID    int64     `json:"courseId,omitempty"`
	ScheduledAt time.Time `json:"scheduledAt,omitempty"`
	DurationMin int       `json:"durationMinutes,omitempty"`
	TotalMarks  int       `json:"totalMarks,omitempty"`
	PassMarks   int       `json:"passMarks,omitempty"`
}

type Certificate struct {
	ID        int64     `json:"id,omitempty"`
	StudentID int64     `json:"studentId"`
	CourseID  int64     `json:"courseId"`
	ExamID    int64     `json:"examId,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitempty"`
	Grade     string    `json:"grade,omitempty"`
	Serial    string    `json:"serialNumber,omitempty"`
}

type User struct {
	ID        int64    `json:"id,omitempty"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	IsEnabled bool     `json:"isEnabled,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
