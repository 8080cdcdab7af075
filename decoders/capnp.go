package decoders

import (
	"fmt"

	"capnproto.org/go/capnp/v3"
	"github.com/jasonmartens/flowgger/event"
)

// CapnpDecoder parses the LogRecord message documented in encoders.CapnpEncoder.
type CapnpDecoder struct{}

func NewCapnpDecoder() *CapnpDecoder { return &CapnpDecoder{} }

const (
	capnpOffHostname  = 0
	capnpOffAppname   = 1
	capnpOffProcid    = 2
	capnpOffMsgid     = 3
	capnpOffMsg       = 4
	capnpOffFullMsg   = 5
	capnpOffPairs     = 6
	capnpOffPairID    = 0
	capnpOffPairKey   = 1
	capnpOffPairValue = 2
	capnpValueText    = 0
	capnpValueBytes   = 1
)

func (CapnpDecoder) Decode(frame []byte) (event.Event, error) {
	msg, err := capnp.Unmarshal(frame)
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: capnp unmarshal: %v", ErrFrameInvalid, err)
	}
	rec, err := msg.Root()
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: capnp root: %v", ErrFrameInvalid, err)
	}
	s := rec.Struct()

	hostname, err := structText(s, capnpOffHostname)
	if err != nil {
		return event.Event{}, err
	}
	if hostname == "" {
		return event.Event{}, fmt.Errorf("%w: hostname", ErrRequiredFieldMissing)
	}

	ev := event.New(s.Int64(0), hostname)
	ev.HasFacility = s.Bool(64)
	ev.Facility = int(s.Int16(10))
	ev.HasSeverity = s.Bool(65)
	ev.Severity = int(s.Int16(12))

	if ev.Appname, err = structText(s, capnpOffAppname); err != nil {
		return event.Event{}, err
	}
	if ev.Procid, err = structText(s, capnpOffProcid); err != nil {
		return event.Event{}, err
	}
	if ev.Msgid, err = structText(s, capnpOffMsgid); err != nil {
		return event.Event{}, err
	}
	if ev.Msg, err = structText(s, capnpOffMsg); err != nil {
		return event.Event{}, err
	}
	if ev.FullMsg, err = structText(s, capnpOffFullMsg); err != nil {
		return event.Event{}, err
	}

	pairsPtr, err := s.Ptr(capnpOffPairs)
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: capnp pairs: %v", ErrFrameInvalid, err)
	}
	list := pairsPtr.List()
	for i := 0; i < list.Len(); i++ {
		elem := list.Struct(i)
		id, err := structText(elem, capnpOffPairID)
		if err != nil {
			return event.Event{}, err
		}
		key, err := structText(elem, capnpOffPairKey)
		if err != nil {
			return event.Event{}, err
		}
		valPtr, err := elem.Ptr(capnpOffPairValue)
		if err != nil {
			return event.Event{}, fmt.Errorf("%w: capnp value: %v", ErrFrameInvalid, err)
		}
		val, err := decodeValue(valPtr.Struct())
		if err != nil {
			return event.Event{}, err
		}
		if id == "" {
			id = event.ExtraID
		}
		group, gerr := ev.SD.Group(id)
		if gerr != nil {
			return event.Event{}, fmt.Errorf("%w: %v", ErrFrameInvalid, gerr)
		}
		group.Set(key, val)
	}

	return ev, nil
}

func structText(s capnp.Struct, ptrOff uint16) (string, error) {
	t, err := s.Text(ptrOff)
	if err != nil {
		return "", fmt.Errorf("%w: capnp text field %d: %v", ErrFrameInvalid, ptrOff, err)
	}
	return t, nil
}

func decodeValue(s capnp.Struct) (event.Value, error) {
	switch s.Uint16(0) {
	case 0:
		return event.BoolValue(s.Bool(16)), nil
	case 1:
		return event.Int64Value(s.Int64(8)), nil
	case 2:
		return event.Uint64Value(s.Uint64(8)), nil
	case 3:
		return event.Float64Value(s.Float64(8)), nil
	case 4:
		t, err := s.Text(capnpValueText)
		if err != nil {
			return event.Value{}, fmt.Errorf("%w: capnp value text: %v", ErrFrameInvalid, err)
		}
		return event.StringValue(t), nil
	case 5:
		d, err := s.Ptr(capnpValueBytes)
		if err != nil {
			return event.Value{}, fmt.Errorf("%w: capnp value bytes: %v", ErrFrameInvalid, err)
		}
		return event.BytesValue(d.Data()), nil
	default:
		return event.Value{}, fmt.Errorf("%w: unknown value discriminant", ErrFrameInvalid)
	}
}
