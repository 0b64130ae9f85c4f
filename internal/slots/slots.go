// Package slots generates the canonical bookable times of a business day.
package slots

import "appointment-booking-api/internal/model"

var (
	Start    = model.ClockOf(9, 0)
	End      = model.ClockOf(17, 0)
	Interval = 30 // minutes
)

// Generate returns every slot from Start to End inclusive, in order.
func Generate() []model.Clock {
	out := make([]model.Clock, 0, int(End-Start)/Interval+1)
	for c := Start; c <= End; c += model.Clock(Interval) {
		out = append(out, c)
	}
	return out
}

// Contains reports whether c is one of the generated slots.
func Contains(c model.Clock) bool {
	return c >= Start && c <= End && int(c-Start)%Interval == 0
}

func Strings(cs []model.Clock) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
