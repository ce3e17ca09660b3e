package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
)

type NewSession struct {
	CourseID  string `json:"course_id" validate:"required"`
	Week      int    `json:"week" validate:"omitempty,min=1,max=52"` // defaults to the next week of the course
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04,endafter"`
	Location  string `json:"location"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.CourseID = core.CleanString(ns.CourseID)
	ns.Date = core.CleanString(ns.Date)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

type QueryFilter struct {
	CourseID string `query:"course_id"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
}

// QR is what a QR image of an active session encodes.
type QR struct {
	SessionID string    `json:"session_id"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewQR(sess attendance.Session, maxAge time.Duration) QR {
	return QR{
		SessionID: sess.ID,
		Code:      sess.Code,
		IssuedAt:  sess.CodeIssuedAt,
		ExpiresAt: sess.CodeIssuedAt.Add(maxAge),
	}
}
