package d7ap

// SessionState is the state of a D7ASP session
type SessionState uint8

const (
	SessionStateIdle    SessionState = 0x00
	SessionStateDormant SessionState = 0x01
	SessionStatePending SessionState = 0x02
	SessionStateActive  SessionState = 0x03
	SessionStateDone    SessionState = 0x04
)

func (s SessionState) String() string {
	switch s {
	case SessionStateIdle:
		return "idle"
	case SessionStateDormant:
		return "dormant"
	case SessionStatePending:
		return "pending"
	case SessionStateActive:
		return "active"
	case SessionStateDone:
		return "done"
	}
	return "unknown"
}

// RespMode selects which responses a request expects
type RespMode uint8

const (
	RespModeNo        RespMode = 0
	RespModeAll       RespMode = 1
	RespModeAny       RespMode = 2
	RespModeNoRpt     RespMode = 4
	RespModeOnErr     RespMode = 5
	RespModePreferred RespMode = 6
)

// RetryMode selects the session retry policy
type RetryMode uint8

const RetryModeNo RetryMode = 0

// SessionQoS is the QoS byte: bits 0-2 response mode, bits 3-5 retry mode,
// bit 6 record, bit 7 stop on error
type SessionQoS struct {
	RespMode    RespMode
	RetryMode   RetryMode
	Record      bool
	StopOnError bool
}

// Raw packs the QoS byte
func (q SessionQoS) Raw() uint8 {
	raw := uint8(q.RespMode&0x07) | uint8(q.RetryMode&0x07)<<3
	if q.Record {
		raw |= 1 << 6
	}
	if q.StopOnError {
		raw |= 1 << 7
	}
	return raw
}

// ParseSessionQoS unpacks a QoS byte
func ParseSessionQoS(raw uint8) SessionQoS {
	return SessionQoS{
		RespMode:    RespMode(raw & 0x07),
		RetryMode:   RetryMode((raw >> 3) & 0x07),
		Record:      raw&(1<<6) != 0,
		StopOnError: raw&(1<<7) != 0,
	}
}

// MasterSessionConfig is the interface configuration a requester uses to
// open a session
type MasterSessionConfig struct {
	QoS            SessionQoS
	DormantTimeout uint8
	Addressee      Addressee
}

// BroadcastConfig returns a fire-and-forget broadcast on accessClass:
// any response, no retries, no NLS
func BroadcastConfig(accessClass uint8) MasterSessionConfig {
	return MasterSessionConfig{
		QoS: SessionQoS{
			RespMode:  RespModeAny,
			RetryMode: RetryModeNo,
		},
		Addressee: Addressee{
			Ctrl: AddresseeCtrl{
				NLSMethod: NLSNone,
				IDType:    IDTypeNOID,
			},
			AccessClass: accessClass,
		},
	}
}

// Append appends the encoded configuration to buf
func (c MasterSessionConfig) Append(buf []byte) []byte {
	buf = append(buf, c.QoS.Raw(), c.DormantTimeout)
	return c.Addressee.Append(buf)
}

// DecodeMasterSessionConfig decodes a configuration and returns the bytes
// consumed
func DecodeMasterSessionConfig(data []byte) (MasterSessionConfig, int, error) {
	var c MasterSessionConfig
	if len(data) < 2 {
		return c, 0, ErrShortBuffer
	}
	c.QoS = ParseSessionQoS(data[0])
	c.DormantTimeout = data[1]

	a, n, err := DecodeAddressee(data[2:])
	if err != nil {
		return c, 0, err
	}
	c.Addressee = a
	return c, 2 + n, nil
}
