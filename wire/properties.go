package wire

// PropertyID identifies one of the MQTT 5 properties (2.2.2.2).
type PropertyID byte

const (
	PropPayloadFormatIndicator          PropertyID = 0x01
	PropMessageExpiryInterval           PropertyID = 0x02
	PropContentType                     PropertyID = 0x03
	PropResponseTopic                   PropertyID = 0x08
	PropCorrelationData                 PropertyID = 0x09
	PropSubscriptionIdentifier          PropertyID = 0x0B
	PropSessionExpiryInterval           PropertyID = 0x11
	PropAssignedClientIdentifier        PropertyID = 0x12
	PropServerKeepAlive                 PropertyID = 0x13
	PropAuthenticationMethod            PropertyID = 0x15
	PropAuthenticationData              PropertyID = 0x16
	PropRequestProblemInformation       PropertyID = 0x17
	PropWillDelayInterval               PropertyID = 0x18
	PropRequestResponseInformation      PropertyID = 0x19
	PropResponseInformation             PropertyID = 0x1A
	PropServerReference                 PropertyID = 0x1C
	PropReasonString                    PropertyID = 0x1F
	PropReceiveMaximum                  PropertyID = 0x21
	PropTopicAliasMaximum               PropertyID = 0x22
	PropTopicAlias                      PropertyID = 0x23
	PropMaximumQoS                      PropertyID = 0x24
	PropRetainAvailable                 PropertyID = 0x25
	PropUserProperty                    PropertyID = 0x26
	PropMaximumPacketSize               PropertyID = 0x27
	PropWildcardSubscriptionAvailable   PropertyID = 0x28
	PropSubscriptionIdentifierAvailable PropertyID = 0x29
	PropSharedSubscriptionAvailable     PropertyID = 0x2A
)

// PropertyType is the wire encoding of a property's value.
type PropertyType byte

const (
	TypeByte PropertyType = iota + 1
	TypeTwoByteInt
	TypeFourByteInt
	TypeVarInt
	TypeUTF8String
	TypeUTF8Pair
	TypeBinaryData
)

// Pair is the value of a UserProperty or other UTF-8 string pair property.
type Pair struct {
	Key   Bytes
	Value Bytes
}

// Property is one tagged entry in a property stream. Exactly one of the
// Byte/Int16/Int32/VarInt/Str/Pair/Bin fields is meaningful, selected by
// the wire type registered for ID.
type Property struct {
	ID    PropertyID
	Byte  byte
	Int16 uint16
	Int32 uint32
	VarInt uint32
	Str   Bytes
	Pair  Pair
	Bin   Bytes
}

var propertyTypes = map[PropertyID]PropertyType{
	PropPayloadFormatIndicator:          TypeByte,
	PropMessageExpiryInterval:           TypeFourByteInt,
	PropContentType:                     TypeUTF8String,
	PropResponseTopic:                   TypeUTF8String,
	PropCorrelationData:                 TypeBinaryData,
	PropSubscriptionIdentifier:          TypeVarInt,
	PropSessionExpiryInterval:           TypeFourByteInt,
	PropAssignedClientIdentifier:        TypeUTF8String,
	PropServerKeepAlive:                 TypeTwoByteInt,
	PropAuthenticationMethod:            TypeUTF8String,
	PropAuthenticationData:              TypeBinaryData,
	PropRequestProblemInformation:       TypeByte,
	PropWillDelayInterval:               TypeFourByteInt,
	PropRequestResponseInformation:      TypeByte,
	PropResponseInformation:             TypeUTF8String,
	PropServerReference:                 TypeUTF8String,
	PropReasonString:                    TypeUTF8String,
	PropReceiveMaximum:                  TypeTwoByteInt,
	PropTopicAliasMaximum:               TypeTwoByteInt,
	PropTopicAlias:                      TypeTwoByteInt,
	PropMaximumQoS:                      TypeByte,
	PropRetainAvailable:                 TypeByte,
	PropUserProperty:                    TypeUTF8Pair,
	PropMaximumPacketSize:               TypeFourByteInt,
	PropWildcardSubscriptionAvailable:   TypeByte,
	PropSubscriptionIdentifierAvailable: TypeByte,
	PropSharedSubscriptionAvailable:     TypeByte,
}

// multiValued is the set of properties MQTT 5 permits to repeat within one
// stream (3.1.2.11.6, 3.1.2.11.8).
var multiValued = map[PropertyID]bool{
	PropUserProperty:           true,
	PropSubscriptionIdentifier: true,
}

// TypeOf reports the wire type for id and whether id is a known property.
func TypeOf(id PropertyID) (PropertyType, bool) {
	t, ok := propertyTypes[id]
	return t, ok
}

// AllowsRepeat reports whether id may appear more than once in one stream.
func AllowsRepeat(id PropertyID) bool {
	return multiValued[id]
}

// Properties is an ordered, possibly-empty property stream. Order is
// preserved verbatim from parse to re-encode (spec: "order within a
// stream is not semantically significant; on re-emission the order
// chosen by the sender is preserved").
type Properties struct {
	items []Property
}

// Add appends a property, preserving insertion order.
func (p *Properties) Add(prop Property) {
	p.items = append(p.items, prop)
}

// Items returns the properties in stream order.
func (p *Properties) Items() []Property {
	return p.items
}

// Len reports the number of properties.
func (p *Properties) Len() int {
	return len(p.items)
}

func propertyLen(prop Property) int {
	n := 1 // identifier byte
	switch propertyTypes[prop.ID] {
	case TypeByte:
		n += 1
	case TypeTwoByteInt:
		n += 2
	case TypeFourByteInt:
		n += 4
	case TypeVarInt:
		n += SizeVarInt(prop.VarInt)
	case TypeUTF8String:
		n += 2 + prop.Str.Len()
	case TypeUTF8Pair:
		n += 2 + prop.Pair.Key.Len() + 2 + prop.Pair.Value.Len()
	case TypeBinaryData:
		n += 2 + prop.Bin.Len()
	}
	return n
}

// EncodedLen returns the byte length of the property-length-prefixed
// stream, i.e. including the variable-byte-integer prefix itself.
func (p *Properties) EncodedLen() int {
	inner := 0
	for _, prop := range p.items {
		inner += propertyLen(prop)
	}
	return SizeVarInt(uint32(inner)) + inner
}

// Append appends the encoded property stream (length prefix plus every
// property, in stream order) to buf.
func (p *Properties) Append(buf []byte) ([]byte, error) {
	inner := 0
	for _, prop := range p.items {
		inner += propertyLen(prop)
	}
	buf, err := AppendVarInt(buf, uint32(inner))
	if err != nil {
		return buf, err
	}
	for _, prop := range p.items {
		buf = append(buf, byte(prop.ID))
		switch propertyTypes[prop.ID] {
		case TypeByte:
			buf = append(buf, prop.Byte)
		case TypeTwoByteInt:
			buf = AppendUint16(buf, prop.Int16)
		case TypeFourByteInt:
			buf = AppendUint32(buf, prop.Int32)
		case TypeVarInt:
			buf, err = AppendVarInt(buf, prop.VarInt)
			if err != nil {
				return buf, err
			}
		case TypeUTF8String:
			buf, err = AppendString(buf, prop.Str)
			if err != nil {
				return buf, err
			}
		case TypeUTF8Pair:
			buf, err = AppendString(buf, prop.Pair.Key)
			if err != nil {
				return buf, err
			}
			buf, err = AppendString(buf, prop.Pair.Value)
			if err != nil {
				return buf, err
			}
		case TypeBinaryData:
			buf, err = AppendBinary(buf, prop.Bin)
			if err != nil {
				return buf, err
			}
		}
	}
	return buf, nil
}

// DecodeProperties decodes a length-prefixed property stream from the
// front of data. ErrMalformed is returned for an unrecognized property ID; per-packet allow-list and
// once-only checks are the caller's responsibility (packet.ParseProperties
// applies them).
func DecodeProperties(data []byte) (Properties, int, error) {
	length, n, err := DecodeVarInt(data)
	if err != nil {
		return Properties{}, 0, err
	}
	offset := n
	if len(data) < offset+int(length) {
		return Properties{}, 0, ErrInsufficientBytes
	}
	end := offset + int(length)

	var props Properties
	for offset < end {
		if offset >= len(data) {
			return Properties{}, 0, ErrInsufficientBytes
		}
		id := PropertyID(data[offset])
		offset++
		typ, ok := propertyTypes[id]
		if !ok {
			return Properties{}, 0, ErrMalformed
		}
		prop := Property{ID: id}
		var consumed int
		switch typ {
		case TypeByte:
			if offset >= len(data) {
				return Properties{}, 0, ErrInsufficientBytes
			}
			prop.Byte = data[offset]
			consumed = 1
		case TypeTwoByteInt:
			prop.Int16, consumed, err = DecodeUint16(data[offset:])
		case TypeFourByteInt:
			prop.Int32, consumed, err = DecodeUint32(data[offset:])
		case TypeVarInt:
			prop.VarInt, consumed, err = DecodeVarInt(data[offset:])
		case TypeUTF8String:
			prop.Str, consumed, err = DecodeString(data[offset:])
		case TypeUTF8Pair:
			var key, value Bytes
			var keyLen, valLen int
			key, keyLen, err = DecodeString(data[offset:])
			if err == nil {
				value, valLen, err = DecodeString(data[offset+keyLen:])
			}
			prop.Pair = Pair{Key: key, Value: value}
			consumed = keyLen + valLen
		case TypeBinaryData:
			prop.Bin, consumed, err = DecodeBinary(data[offset:])
		}
		if err != nil {
			return Properties{}, 0, err
		}
		offset += consumed
		props.Add(prop)
	}
	return props, offset, nil
}
