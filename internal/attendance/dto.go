package attendance

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type recordRequest struct {
	StudentID   string `json:"student_id" validate:"required,uuid"`
	CourseCode  string `json:"course_code" validate:"required,max=32"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,oneof=present absent late excused"`
}

func (r recordRequest) toInput(recordedBy string) (RecordInput, error) {
	date, err := time.Parse(dateLayout, r.SessionDate)
	if err != nil {
		return RecordInput{}, ErrInvalidDate
	}
	return RecordInput{
		StudentID:   r.StudentID,
		CourseCode:  strings.ToUpper(strings.TrimSpace(r.CourseCode)),
		SessionDate: date,
		Status:      Status(r.Status),
		RecordedBy:  recordedBy,
	}, nil
}
