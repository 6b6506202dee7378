package permissions

import (
	"time"

	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type createRequest struct {
	Type      string `json:"type" validate:"required,oneof=sick leave other"`
	Reason    string `json:"reason" validate:"required,min=3,max=1000"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (c createRequest) toInput(studentID string) (CreateInput, error) {
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return CreateInput{}, httpx.Validation("start_date must be a date formatted 2006-01-02")
	}
	end, err := time.Parse(dateLayout, c.EndDate)
	if err != nil {
		return CreateInput{}, httpx.Validation("end_date must be a date formatted 2006-01-02")
	}
	if end.Before(start) {
		return CreateInput{}, ErrDateRange
	}
	return CreateInput{
		StudentID: studentID,
		Type:      Type(c.Type),
		Reason:    c.Reason,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// statusRequest is the PATCH body. Status is checked by the service so that a
// bad value yields the dedicated message.
type statusRequest struct {
	Status  string `json:"status"`
	AdminID string `json:"admin_id"`
}
