package bookingpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestNestedAppointmentRoundTrip(t *testing.T) {
	in := &AppointmentReply{Appointment: &Appointment{
		Id: "a1", Date: "2024-06-01", Time: "09:00", Status: "pending", ClientId: "c1",
	}}
	var out AppointmentReply
	require.NoError(t, Codec{}.Unmarshal(in.MarshalWire(), &out))
	assert.Equal(t, in, &out)
}

func TestRepeatedTimes(t *testing.T) {
	in := &SlotsReply{Date: "2024-06-01", AvailableTimes: []string{"09:00", "09:30"}}
	var out SlotsReply
	require.NoError(t, out.UnmarshalWire(in.MarshalWire()))
	assert.Equal(t, []string{"09:00", "09:30"}, out.AvailableTimes)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := protowire.AppendTag(nil, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, (&IdRequest{Id: "x"}).MarshalWire()...)

	var out IdRequest
	require.NoError(t, out.UnmarshalWire(b))
	assert.Equal(t, "x", out.Id)
}

func TestTruncatedInput(t *testing.T) {
	b := (&BookRequest{Date: "2024-06-01"}).MarshalWire()
	var out BookRequest
	assert.Error(t, out.UnmarshalWire(b[:len(b)-2]))
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	_, err := Codec{}.Marshal("nope")
	assert.Error(t, err)
	assert.Equal(t, "booking-wire", Codec{}.Name())
}
