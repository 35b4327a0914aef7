package wire

import (
	"reflect"
	"unsafe"

	"github.com/outofforest/proton"
	"github.com/outofforest/proton/helpers"
	"github.com/pkg/errors"
)

const (
	id0 uint64 = iota + 1
	id1
	id2
	id3
	id4
	id5
	id6
)

var _ proton.Marshaller = Marshaller{}

// NewMarshaller creates marshaller.
func NewMarshaller() Marshaller {
	return Marshaller{}
}

// Marshaller marshals and unmarshals messages.
type Marshaller struct {
}

// Messages returns list of the message types supported by marshaller.
func (m Marshaller) Messages() []any {
	return []any {
		Register{},
		RequestConnection{},
		Join{},
		Leave{},
		Signal{},
		Auth{},
		IncomingRequest{},
	}
}

// ID returns ID of message type.
func (m Marshaller) ID(msg any) (uint64, error) {
	switch msg.(type) {
	case *Register:
		return id0, nil
	case *RequestConnection:
		return id1, nil
	case *Join:
		return id2, nil
	case *Leave:
		return id3, nil
	case *Signal:
		return id4, nil
	case *Auth:
		return id5, nil
	case *IncomingRequest:
		return id6, nil
	default:
		return 0, errors.Errorf("unknown message type %T", msg)
	}
}

// Size computes the size of marshalled message.
func (m Marshaller) Size(msg any) (uint64, error) {
	switch msg2 := msg.(type) {
	case *Register:
		return size0(msg2), nil
	case *RequestConnection:
		return size1(msg2), nil
	case *Join:
		return size2(msg2), nil
	case *Leave:
		return size3(msg2), nil
	case *Signal:
		return size4(msg2), nil
	case *Auth:
		return size5(msg2), nil
	case *IncomingRequest:
		return size6(msg2), nil
	default:
		return 0, errors.Errorf("unknown message type %T", msg)
	}
}

// Marshal marshals message.
func (m Marshaller) Marshal(msg any, buf []byte) (retID, retSize uint64, retErr error) {
	defer helpers.RecoverMarshal(&retErr)

	switch msg2 := msg.(type) {
	case *Register:
		return id0, marshal0(msg2, buf), nil
	case *RequestConnection:
		return id1, marshal1(msg2, buf), nil
	case *Join:
		return id2, marshal2(msg2, buf), nil
	case *Leave:
		return id3, marshal3(msg2, buf), nil
	case *Signal:
		return id4, marshal4(msg2, buf), nil
	case *Auth:
		return id5, marshal5(msg2, buf), nil
	case *IncomingRequest:
		return id6, marshal6(msg2, buf), nil
	default:
		return 0, 0, errors.Errorf("unknown message type %T", msg)
	}
}

// Unmarshal unmarshals message.
func (m Marshaller) Unmarshal(id uint64, buf []byte) (retMsg any, retSize uint64, retErr error) {
	defer helpers.RecoverUnmarshal(&retErr)

	switch id {
	case id0:
		msg := &Register{}
		return msg, unmarshal0(msg, buf), nil
	case id1:
		msg := &RequestConnection{}
		return msg, unmarshal1(msg, buf), nil
	case id2:
		msg := &Join{}
		return msg, unmarshal2(msg, buf), nil
	case id3:
		msg := &Leave{}
		return msg, unmarshal3(msg, buf), nil
	case id4:
		msg := &Signal{}
		return msg, unmarshal4(msg, buf), nil
	case id5:
		msg := &Auth{}
		return msg, unmarshal5(msg, buf), nil
	case id6:
		msg := &IncomingRequest{}
		return msg, unmarshal6(msg, buf), nil
	default:
		return nil, 0, errors.Errorf("unknown ID %d", id)
	}
}

// MakePatch creates a patch.
func (m Marshaller) MakePatch(msgDst, msgSrc any, buf []byte) (retID, retSize uint64, retErr error) {
	defer helpers.RecoverMakePatch(&retErr)

	switch msg2 := msgDst.(type) {
	case *Register:
		return id0, makePatch0(msg2, msgSrc.(*Register), buf), nil
	case *RequestConnection:
		return id1, makePatch1(msg2, msgSrc.(*RequestConnection), buf), nil
	case *Join:
		return id2, makePatch2(msg2, msgSrc.(*Join), buf), nil
	case *Leave:
		return id3, makePatch3(msg2, msgSrc.(*Leave), buf), nil
	case *Signal:
		return id4, makePatch4(msg2, msgSrc.(*Signal), buf), nil
	case *Auth:
		return id5, makePatch5(msg2, msgSrc.(*Auth), buf), nil
	case *IncomingRequest:
		return id6, makePatch6(msg2, msgSrc.(*IncomingRequest), buf), nil
	default:
		return 0, 0, errors.Errorf("unknown message type %T", msgDst)
	}
}

// ApplyPatch applies patch.
func (m Marshaller) ApplyPatch(msg any, buf []byte) (retSize uint64, retErr error) {
	defer helpers.RecoverApplyPatch(&retErr)

	switch msg2 := msg.(type) {
	case *Register:
		return applyPatch0(msg2, buf), nil
	case *RequestConnection:
		return applyPatch1(msg2, buf), nil
	case *Join:
		return applyPatch2(msg2, buf), nil
	case *Leave:
		return applyPatch3(msg2, buf), nil
	case *Signal:
		return applyPatch4(msg2, buf), nil
	case *Auth:
		return applyPatch5(msg2, buf), nil
	case *IncomingRequest:
		return applyPatch6(msg2, buf), nil
	default:
		return 0, errors.Errorf("unknown message type %T", msg)
	}
}

func size0(m *Register) uint64 {
	var n uint64 = 1
	{
		// Identifier

		{
			l := uint64(len(m.Identifier))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	return n
}

func marshal0(m *Register, b []byte) uint64 {
	var o uint64
	{
		// Identifier

		{
			l := uint64(len(m.Identifier))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.Identifier)
			o += l
		}
	}

	return o
}

func unmarshal0(m *Register, b []byte) uint64 {
	var o uint64
	{
		// Identifier

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Identifier = string(b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func makePatch0(m, mSrc *Register, b []byte) uint64 {
	var o uint64 = 1
	{
		// Identifier

		if reflect.DeepEqual(m.Identifier, mSrc.Identifier) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.Identifier))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.Identifier)
				o += l
			}
		}
	}

	return o
}

func applyPatch0(m *Register, b []byte) uint64 {
	var o uint64 = 1
	{
		// Identifier

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.Identifier = string(b[o:o+l])
					o += l
				}
			}
		}
	}

	return o
}

func size1(m *RequestConnection) uint64 {
	var n uint64 = 2
	{
		// To

		{
			l := uint64(len(m.To))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	{
		// From

		{
			l := uint64(len(m.From))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	return n
}

func marshal1(m *RequestConnection, b []byte) uint64 {
	var o uint64
	{
		// To

		{
			l := uint64(len(m.To))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.To)
			o += l
		}
	}
	{
		// From

		{
			l := uint64(len(m.From))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.From)
			o += l
		}
	}

	return o
}

func unmarshal1(m *RequestConnection, b []byte) uint64 {
	var o uint64
	{
		// To

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.To = string(b[o:o+l])
				o += l
			}
		}
	}
	{
		// From

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.From = string(b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func makePatch1(m, mSrc *RequestConnection, b []byte) uint64 {
	var o uint64 = 1
	{
		// To

		if reflect.DeepEqual(m.To, mSrc.To) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.To))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.To)
				o += l
			}
		}
	}
	{
		// From

		if reflect.DeepEqual(m.From, mSrc.From) {
			b[0] &= 0xFD
		} else {
			b[0] |= 0x02
			{
				l := uint64(len(m.From))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.From)
				o += l
			}
		}
	}

	return o
}

func applyPatch1(m *RequestConnection, b []byte) uint64 {
	var o uint64 = 1
	{
		// To

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.To = string(b[o:o+l])
					o += l
				}
			}
		}
	}
	{
		// From

		if b[0]&0x02 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.From = string(b[o:o+l])
					o += l
				}
			}
		}
	}

	return o
}

func size2(m *Join) uint64 {
	var n uint64 = 1
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	return n
}

func marshal2(m *Join, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.Room)
			o += l
		}
	}

	return o
}

func unmarshal2(m *Join, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Room = string(b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func makePatch2(m, mSrc *Join, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if reflect.DeepEqual(m.Room, mSrc.Room) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.Room))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.Room)
				o += l
			}
		}
	}

	return o
}

func applyPatch2(m *Join, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.Room = string(b[o:o+l])
					o += l
				}
			}
		}
	}

	return o
}

func size3(m *Leave) uint64 {
	var n uint64 = 1
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	return n
}

func marshal3(m *Leave, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.Room)
			o += l
		}
	}

	return o
}

func unmarshal3(m *Leave, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Room = string(b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func makePatch3(m, mSrc *Leave, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if reflect.DeepEqual(m.Room, mSrc.Room) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.Room))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.Room)
				o += l
			}
		}
	}

	return o
}

func applyPatch3(m *Leave, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.Room = string(b[o:o+l])
					o += l
				}
			}
		}
	}

	return o
}

func size4(m *Signal) uint64 {
	var n uint64 = 2
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	{
		// Payload

		l := uint64(len(m.Payload))
		helpers.UInt64Size(l, &n)
		n += l
	}
	return n
}

func marshal4(m *Signal, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.Room)
			o += l
		}
	}
	{
		// Payload

		l := uint64(len(m.Payload))
		helpers.UInt64Marshal(l, b, &o)
		if l > 0 {
			copy(b[o:o+l], unsafe.Slice(&m.Payload[0], l))
			o += l
		}
	}

	return o
}

func unmarshal4(m *Signal, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Room = string(b[o:o+l])
				o += l
			}
		}
	}
	{
		// Payload

		var l uint64
		helpers.UInt64Unmarshal(&l, b, &o)
		if l > 0 {
			m.Payload = make([]uint8, l)
			copy(m.Payload, b[o:o+l])
			o += l
		}
	}

	return o
}

func makePatch4(m, mSrc *Signal, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if reflect.DeepEqual(m.Room, mSrc.Room) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.Room))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.Room)
				o += l
			}
		}
	}
	{
		// Payload

		if reflect.DeepEqual(m.Payload, mSrc.Payload) {
			b[0] &= 0xFD
		} else {
			b[0] |= 0x02
			l := uint64(len(m.Payload))
			helpers.UInt64Marshal(l, b, &o)
			if l > 0 {
				copy(b[o:o+l], unsafe.Slice(&m.Payload[0], l))
				o += l
			}
		}
	}

	return o
}

func applyPatch4(m *Signal, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.Room = string(b[o:o+l])
					o += l
				}
			}
		}
	}
	{
		// Payload

		if b[0]&0x02 != 0 {
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Payload = make([]uint8, l)
				copy(m.Payload, b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func size5(m *Auth) uint64 {
	var n uint64 = 2
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	{
		// Payload

		l := uint64(len(m.Payload))
		helpers.UInt64Size(l, &n)
		n += l
	}
	return n
}

func marshal5(m *Auth, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			l := uint64(len(m.Room))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.Room)
			o += l
		}
	}
	{
		// Payload

		l := uint64(len(m.Payload))
		helpers.UInt64Marshal(l, b, &o)
		if l > 0 {
			copy(b[o:o+l], unsafe.Slice(&m.Payload[0], l))
			o += l
		}
	}

	return o
}

func unmarshal5(m *Auth, b []byte) uint64 {
	var o uint64
	{
		// Room

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Room = string(b[o:o+l])
				o += l
			}
		}
	}
	{
		// Payload

		var l uint64
		helpers.UInt64Unmarshal(&l, b, &o)
		if l > 0 {
			m.Payload = make([]uint8, l)
			copy(m.Payload, b[o:o+l])
			o += l
		}
	}

	return o
}

func makePatch5(m, mSrc *Auth, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if reflect.DeepEqual(m.Room, mSrc.Room) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.Room))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.Room)
				o += l
			}
		}
	}
	{
		// Payload

		if reflect.DeepEqual(m.Payload, mSrc.Payload) {
			b[0] &= 0xFD
		} else {
			b[0] |= 0x02
			l := uint64(len(m.Payload))
			helpers.UInt64Marshal(l, b, &o)
			if l > 0 {
				copy(b[o:o+l], unsafe.Slice(&m.Payload[0], l))
				o += l
			}
		}
	}

	return o
}

func applyPatch5(m *Auth, b []byte) uint64 {
	var o uint64 = 1
	{
		// Room

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.Room = string(b[o:o+l])
					o += l
				}
			}
		}
	}
	{
		// Payload

		if b[0]&0x02 != 0 {
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.Payload = make([]uint8, l)
				copy(m.Payload, b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func size6(m *IncomingRequest) uint64 {
	var n uint64 = 1
	{
		// From

		{
			l := uint64(len(m.From))
			helpers.UInt64Size(l, &n)
			n += l
		}
	}
	return n
}

func marshal6(m *IncomingRequest, b []byte) uint64 {
	var o uint64
	{
		// From

		{
			l := uint64(len(m.From))
			helpers.UInt64Marshal(l, b, &o)
			copy(b[o:o+l], m.From)
			o += l
		}
	}

	return o
}

func unmarshal6(m *IncomingRequest, b []byte) uint64 {
	var o uint64
	{
		// From

		{
			var l uint64
			helpers.UInt64Unmarshal(&l, b, &o)
			if l > 0 {
				m.From = string(b[o:o+l])
				o += l
			}
		}
	}

	return o
}

func makePatch6(m, mSrc *IncomingRequest, b []byte) uint64 {
	var o uint64 = 1
	{
		// From

		if reflect.DeepEqual(m.From, mSrc.From) {
			b[0] &= 0xFE
		} else {
			b[0] |= 0x01
			{
				l := uint64(len(m.From))
				helpers.UInt64Marshal(l, b, &o)
				copy(b[o:o+l], m.From)
				o += l
			}
		}
	}

	return o
}

func applyPatch6(m *IncomingRequest, b []byte) uint64 {
	var o uint64 = 1
	{
		// From

		if b[0]&0x01 != 0 {
			{
				var l uint64
				helpers.UInt64Unmarshal(&l, b, &o)
				if l > 0 {
					m.From = string(b[o:o+l])
					o += l
				}
			}
		}
	}

	return o
}
