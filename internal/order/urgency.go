package order

import "time"

// Urgency bands drive visual severity on the boards. They are derived
// from elapsed time at render, never persisted.
type Urgency struct {
	Name string
}

func (u Urgency) Code() string {
	return u.Name
}

type UrgencyEnum struct {
	Normal   Urgency
	Warning  Urgency
	Critical Urgency
}

var Urgencies = UrgencyEnum{
	Normal:   Urgency{Name: "normal"},
	Warning:  Urgency{Name: "warning"},
	Critical: Urgency{Name: "critical"},
}

const (
	UrgencyWarningAfter  = 10 * time.Minute
	UrgencyCriticalAfter = 20 * time.Minute
)

// UrgencyAt classifies an order created at createdAt as observed at now.
func UrgencyAt(createdAt, now time.Time) Urgency {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed >= UrgencyCriticalAfter:
		return Urgencies.Critical
	case elapsed >= UrgencyWarningAfter:
		return Urgencies.Warning
	default:
		return Urgencies.Normal
	}
}

// Urgency classifies the order's elapsed time as observed at now.
func (o *Order) Urgency(now time.Time) Urgency {
	return UrgencyAt(o.CreatedAt, now)
}

// ElapsedMinutes returns whole minutes since the order was created.
func (o *Order) ElapsedMinutes(now time.Time) int {
	return int(now.Sub(o.CreatedAt) / time.Minute)
}
