// Package bookingpb holds the booking.v1 wire messages and service
// descriptor. Messages are encoded as protobuf with protowire; every field is
// a length-delimited string or message.
package bookingpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every request and response type.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire([]byte) error
}

type BookRequest struct {
	Date     string // 1
	Time     string // 2
	ClientId string // 3
	Status   string // 4
}

func (m *BookRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Date)
	b = appendString(b, 2, m.Time)
	b = appendString(b, 3, m.ClientId)
	b = appendString(b, 4, m.Status)
	return b
}

func (m *BookRequest) UnmarshalWire(b []byte) error {
	*m = BookRequest{}
	return consume(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Date = string(v)
		case 2:
			m.Time = string(v)
		case 3:
			m.ClientId = string(v)
		case 4:
			m.Status = string(v)
		}
		return nil
	})
}

// IdRequest addresses one appointment.
type IdRequest struct {
	Id string // 1
}

func (m *IdRequest) MarshalWire() []byte { return appendString(nil, 1, m.Id) }

func (m *IdRequest) UnmarshalWire(b []byte) error {
	*m = IdRequest{}
	return consume(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Id = string(v)
		}
		return nil
	})
}

type Appointment struct {
	Id        string // 1
	Date      string // 2
	Time      string // 3
	Status    string // 4
	ClientId  string // 5
	CreatedAt string // 6, RFC 3339
	UpdatedAt string // 7, RFC 3339
}

func (m *Appointment) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.Time)
	b = appendString(b, 4, m.Status)
	b = appendString(b, 5, m.ClientId)
	b = appendString(b, 6, m.CreatedAt)
	b = appendString(b, 7, m.UpdatedAt)
	return b
}

func (m *Appointment) UnmarshalWire(b []byte) error {
	*m = Appointment{}
	return consume(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Id = string(v)
		case 2:
			m.Date = string(v)
		case 3:
			m.Time = string(v)
		case 4:
			m.Status = string(v)
		case 5:
			m.ClientId = string(v)
		case 6:
			m.CreatedAt = string(v)
		case 7:
			m.UpdatedAt = string(v)
		}
		return nil
	})
}

type AppointmentReply struct {
	Appointment *Appointment // 1
}

func (m *AppointmentReply) MarshalWire() []byte {
	if m.Appointment == nil {
		return nil
	}
	return protowire.AppendBytes(protowire.AppendTag(nil, 1, protowire.BytesType), m.Appointment.MarshalWire())
}

func (m *AppointmentReply) UnmarshalWire(b []byte) error {
	*m = AppointmentReply{}
	return consume(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		m.Appointment = &Appointment{}
		return m.Appointment.UnmarshalWire(v)
	})
}

type SlotsRequest struct {
	Date string // 1
}

func (m *SlotsRequest) MarshalWire() []byte { return appendString(nil, 1, m.Date) }

func (m *SlotsRequest) UnmarshalWire(b []byte) error {
	*m = SlotsRequest{}
	return consume(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Date = string(v)
		}
		return nil
	})
}

type SlotsReply struct {
	Date           string   // 1
	AvailableTimes []string // 2, repeated
}

func (m *SlotsReply) MarshalWire() []byte {
	b := appendString(nil, 1, m.Date)
	for _, t := range m.AvailableTimes {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	return b
}

func (m *SlotsReply) UnmarshalWire(b []byte) error {
	*m = SlotsReply{}
	return consume(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Date = string(v)
		case 2:
			m.AvailableTimes = append(m.AvailableTimes, string(v))
		}
		return nil
	})
}

// appendString skips empty values like proto3 does.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// consume walks b and hands every length-delimited field to fn. Fields of
// other wire types are skipped.
func consume(b []byte, fn func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("bookingpb: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("bookingpb: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("bookingpb: field %d: %w", num, protowire.ParseError(n))
		}
		if err := fn(num, v); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
