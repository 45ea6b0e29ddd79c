// Package d7ap holds the public DASH7 Alliance Protocol types shared by the
// stack and its applications: addressee, session QoS and session
// configuration, with their on-air bit packing.
package d7ap

import "errors"

var ErrShortBuffer = errors.New("d7ap: buffer too short")

// IDType selects how the addressee ID is interpreted
type IDType uint8

const (
	IDTypeNBID IDType = 0 // Number of addressees, 1 byte
	IDTypeNOID IDType = 1 // Broadcast, no ID
	IDTypeUID  IDType = 2 // Unique 64-bit ID
	IDTypeVID  IDType = 3 // Virtual 16-bit ID
)

// ID lengths per IDType
const (
	IDLengthNBID = 1
	IDLengthNOID = 0
	IDLengthUID  = 8
	IDLengthVID  = 2
)

// Length returns the number of ID bytes carried for t
func (t IDType) Length() int {
	switch t {
	case IDTypeNBID:
		return IDLengthNBID
	case IDTypeNOID:
		return IDLengthNOID
	case IDTypeUID:
		return IDLengthUID
	case IDTypeVID:
		return IDLengthVID
	}
	return -1
}

// NLS (network layer security) methods
const (
	NLSNone         = 0
	NLSAESCTR       = 1
	NLSAESCBCMAC128 = 2
	NLSAESCBCMAC64  = 3
	NLSAESCBCMAC32  = 4
	NLSAESCCM128    = 5
	NLSAESCCM64     = 6
	NLSAESCCM32     = 7
)

// AddresseeCtrl is the addressee control byte:
// bits 0-3 NLS method, bits 4-5 ID type, bits 6-7 reserved
type AddresseeCtrl struct {
	NLSMethod uint8
	IDType    IDType
}

// Raw packs the control byte
func (c AddresseeCtrl) Raw() uint8 {
	return c.NLSMethod&0x0F | uint8(c.IDType&0x03)<<4
}

// ParseAddresseeCtrl unpacks a control byte
func ParseAddresseeCtrl(raw uint8) AddresseeCtrl {
	return AddresseeCtrl{
		NLSMethod: raw & 0x0F,
		IDType:    IDType((raw >> 4) & 0x03),
	}
}

// Addressee identifies the target of a session
type Addressee struct {
	Ctrl        AddresseeCtrl
	AccessClass uint8 // low nibble mask, high nibble specifier
	ID          [8]byte
}

// AccessMask returns the access mask nibble
func (a Addressee) AccessMask() uint8 {
	return a.AccessClass & 0x0F
}

// AccessSpecifier returns the access specifier nibble
func (a Addressee) AccessSpecifier() uint8 {
	return a.AccessClass >> 4
}

// SetAccessClass sets both access class nibbles
func (a *Addressee) SetAccessClass(specifier, mask uint8) {
	a.AccessClass = (specifier&0x0F)<<4 | mask&0x0F
}

// Append appends the encoded addressee (ctrl, access class, ID) to buf
func (a Addressee) Append(buf []byte) []byte {
	ctrl := a.Ctrl.Raw()
	buf = append(buf, ctrl, a.AccessClass)
	return append(buf, a.ID[:ParseAddresseeCtrl(ctrl).IDType.Length()]...)
}

// DecodeAddressee decodes an addressee and returns the bytes consumed
func DecodeAddressee(data []byte) (Addressee, int, error) {
	var a Addressee
	if len(data) < 2 {
		return a, 0, ErrShortBuffer
	}
	a.Ctrl = ParseAddresseeCtrl(data[0])
	a.AccessClass = data[1]

	n := a.Ctrl.IDType.Length()
	if len(data) < 2+n {
		return a, 0, ErrShortBuffer
	}
	copy(a.ID[:], data[2:2+n])
	return a, 2 + n, nil
}

// SPState is the session protocol state byte of a received response:
// bits 0-3 reserved, then ucast, retry, missed, nls
type SPState struct {
	Unicast bool
	Retry   bool
	Missed  bool
	NLS     bool
}

// Raw packs the state byte
func (s SPState) Raw() uint8 {
	var raw uint8
	if s.Unicast {
		raw |= 1 << 4
	}
	if s.Retry {
		raw |= 1 << 5
	}
	if s.Missed {
		raw |= 1 << 6
	}
	if s.NLS {
		raw |= 1 << 7
	}
	return raw
}

// ParseSPState unpacks a state byte
func ParseSPState(raw uint8) SPState {
	return SPState{
		Unicast: raw&(1<<4) != 0,
		Retry:   raw&(1<<5) != 0,
		Missed:  raw&(1<<6) != 0,
		NLS:     raw&(1<<7) != 0,
	}
}
