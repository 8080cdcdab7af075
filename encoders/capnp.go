package encoders

import (
	"fmt"

	"capnproto.org/go/capnp/v3"
	"github.com/jasonmartens/flowgger/event"
)

// The Cap'n Proto encoding mirrors this schema. No capnpc-go generated code
// exists for it (the pack carries no Cap'n Proto schema or generator), so
// the struct layout below is hand-built directly against the low-level
// capnp.Struct API instead of generated accessor types.
//
//	struct LogRecord {
//	  timestamp   @0  :Int64;
//	  hasFacility @1  :Bool;
//	  facility    @2  :Int16;
//	  hasSeverity @3  :Bool;
//	  severity    @4  :Int16;
//	  hostname    @5  :Text;
//	  appname     @6  :Text;
//	  procid      @7  :Text;
//	  msgid       @8  :Text;
//	  msg         @9  :Text;
//	  fullMsg     @10 :Text;
//	  pairs       @11 :List(Pair);
//	}
//
//	struct Pair {
//	  id    @0 :Text;
//	  key   @1 :Text;
//	  value @2 :Value;
//	}
//
//	struct Value {
//	  union {
//	    boolValue   @0 :Bool;
//	    intValue    @1 :Int64;
//	    uintValue   @2 :UInt64;
//	    floatValue  @3 :Float64;
//	    stringValue @4 :Text;
//	    bytesValue  @5 :Data;
//	  }
//	}
const (
	logRecordDataSize  = 24 // timestamp in word 0; hasFacility/hasSeverity bits and facility/severity int16s in word 1; word 2 unused
	logRecordPtrCount  = 7  // hostname, appname, procid, msgid, msg, fullMsg, pairs
	pairDataSize       = 0
	pairPtrCount       = 3 // id, key, value
	valueTagSize       = 16 // discriminant and bool in word 0; int/uint/float payload in word 1
	valuePtrCount      = 2 // stringValue, bytesValue (bool/int/uint/float live in the data section)
	valueDiscBool      = 0
	valueDiscInt       = 1
	valueDiscUint      = 2
	valueDiscFloat     = 3
	valueDiscString    = 4
	valueDiscBytes     = 5
	offHostname        = 0
	offAppname         = 1
	offProcid          = 2
	offMsgid           = 3
	offMsg             = 4
	offFullMsg         = 5
	offPairs           = 6
	offPairID          = 0
	offPairKey         = 1
	offPairValue       = 2
	offValueStringText = 0
	offValueBytesData  = 1
)

// CapnpEncoder serializes an Event into the LogRecord message above. Extra
// headers are appended as additional Pair entries under the "_extra" id,
// matching the Cap'n Proto stream's "pairs" list convention.
type CapnpEncoder struct {
	Extra ExtraHeaders
}

func NewCapnpEncoder(extra ExtraHeaders) *CapnpEncoder {
	return &CapnpEncoder{Extra: extra}
}

func (e *CapnpEncoder) Encode(ev event.Event) ([]byte, error) {
	msg, seg, err := capnp.NewMessage(capnp.SingleSegment(nil))
	if err != nil {
		return nil, fmt.Errorf("capnp encode: %w", err)
	}

	rec, err := capnp.NewRootStruct(seg, capnp.ObjectSize{DataSize: logRecordDataSize, PointerCount: logRecordPtrCount})
	if err != nil {
		return nil, fmt.Errorf("capnp encode: %w", err)
	}

	rec.SetInt64(0, ev.Timestamp)
	rec.SetBool(64, ev.HasFacility)
	rec.SetInt16(10, int16(ev.Facility))
	rec.SetBool(65, ev.HasSeverity)
	rec.SetInt16(12, int16(ev.Severity))

	if err := setStructText(rec, offHostname, ev.Hostname); err != nil {
		return nil, err
	}
	if err := setStructText(rec, offAppname, ev.Appname); err != nil {
		return nil, err
	}
	if err := setStructText(rec, offProcid, ev.Procid); err != nil {
		return nil, err
	}
	if err := setStructText(rec, offMsgid, ev.Msgid); err != nil {
		return nil, err
	}
	if err := setStructText(rec, offMsg, ev.Msg); err != nil {
		return nil, err
	}
	if err := setStructText(rec, offFullMsg, ev.FullMsg); err != nil {
		return nil, err
	}

	var pairs []pairToWrite
	if ev.SD != nil {
		for _, id := range ev.SD.IDs() {
			f, _ := ev.SD.Lookup(id)
			for _, p := range f.Pairs() {
				pairs = append(pairs, pairToWrite{id: id, key: p.Key, val: p.Value})
			}
		}
	}
	for k, v := range e.Extra {
		pairs = append(pairs, pairToWrite{id: event.ExtraID, key: k, val: event.StringValue(v)})
	}

	list, err := capnp.NewCompositeList(seg, capnp.ObjectSize{DataSize: pairDataSize, PointerCount: pairPtrCount}, int32(len(pairs)))
	if err != nil {
		return nil, fmt.Errorf("capnp encode: pairs list: %w", err)
	}
	for i, p := range pairs {
		elem := list.Struct(i)
		if err := setStructText(elem, offPairID, p.id); err != nil {
			return nil, err
		}
		if err := setStructText(elem, offPairKey, p.key); err != nil {
			return nil, err
		}
		valStruct, err := capnp.NewStruct(seg, capnp.ObjectSize{DataSize: valueTagSize, PointerCount: valuePtrCount})
		if err != nil {
			return nil, fmt.Errorf("capnp encode: value: %w", err)
		}
		if err := encodeValue(valStruct, seg, p.val); err != nil {
			return nil, err
		}
		if err := elem.SetPtr(offPairValue, valStruct.ToPtr()); err != nil {
			return nil, fmt.Errorf("capnp encode: %w", err)
		}
	}
	if err := rec.SetPtr(offPairs, list.ToPtr()); err != nil {
		return nil, fmt.Errorf("capnp encode: %w", err)
	}

	return msg.Marshal()
}

type pairToWrite struct {
	id  string
	key string
	val event.Value
}

func encodeValue(s capnp.Struct, seg *capnp.Segment, v event.Value) error {
	switch v.Kind() {
	case event.KindBool:
		s.SetUint16(0, valueDiscBool)
		s.SetBool(16, v.Bool())
	case event.KindInt64:
		s.SetUint16(0, valueDiscInt)
		s.SetInt64(8, v.Int64())
	case event.KindUint64:
		s.SetUint16(0, valueDiscUint)
		s.SetUint64(8, v.Uint64())
	case event.KindFloat64:
		s.SetUint16(0, valueDiscFloat)
		s.SetFloat64(8, v.Float64())
	case event.KindString:
		s.SetUint16(0, valueDiscString)
		return setStructText(s, offValueStringText, v.String())
	case event.KindBytes:
		s.SetUint16(0, valueDiscBytes)
		data, err := capnp.NewData(seg, v.Bytes())
		if err != nil {
			return fmt.Errorf("capnp encode: bytes value: %w", err)
		}
		return s.SetPtr(offValueBytesData, data.ToPtr())
	}
	return nil
}

func setStructText(s capnp.Struct, ptrOff uint16, v string) error {
	if v == "" {
		return nil
	}
	if err := s.SetNewText(ptrOff, v); err != nil {
		return fmt.Errorf("capnp encode: text field %d: %w", ptrOff, err)
	}
	return nil
}
