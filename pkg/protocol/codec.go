package protocol

import (
	"encoding/binary"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
)

// Codec 帧编解码器，缓存派生后的RC4密钥
type Codec struct {
	keys Keys
	key  []byte
}

// NewCodec 创建编解码器，密钥在创建时派生一次
func NewCodec(keys Keys) *Codec {
	return &Codec{keys: keys, key: keys.Derive()}
}

// Keys 返回编解码器使用的密钥参数
func (c *Codec) Keys() Keys {
	return c.keys
}

// ValidateFrame 检查结束标识与CRC16
func ValidateFrame(data []byte) bool {
	if len(data) < constants.FooterSize || data[len(data)-1] != constants.EndMarker {
		return false
	}
	body := data[:len(data)-constants.FooterSize]
	received := binary.BigEndian.Uint16(data[len(data)-constants.FooterSize : len(data)-1])
	return received == CRC16(body)
}

// Decode 使用给定密钥解码一帧
func Decode(raw []byte, keys Keys) (*Frame, bool, error) {
	return NewCodec(keys).Decode(raw)
}

// Decode 解析帧结构，按需解密加密段并校验CRC8
// 返回值中的bool表示CRC8是否匹配；长度不足时返回FrameMalformed错误
func (c *Codec) Decode(raw []byte) (*Frame, bool, error) {
	if len(raw) < constants.HeaderSize+constants.PlainSize {
		return nil, false, errors.Newf(errors.ErrFrameMalformed,
			"帧长度不足: %d < %d", len(raw), constants.HeaderSize+constants.PlainSize)
	}
	if len(raw) < constants.MinFrameSize {
		return nil, false, errors.Newf(errors.ErrFrameMalformed,
			"加密段长度不足: 帧长 %d < %d", len(raw), constants.MinFrameSize)
	}

	footerPos := len(raw) - constants.FooterSize
	segment := make([]byte, footerPos-constants.EncryptedStartPos)
	copy(segment, raw[constants.EncryptedStartPos:footerPos])

	frame := &Frame{
		Header: Header{
			Start1:  raw[0],
			Start2:  raw[1],
			Version: raw[2],
			Flags:   raw[constants.FlagsPos],
		},
		Plain: Plain{
			CommandID: binary.BigEndian.Uint16(raw[constants.CommandIDPos:]),
			KeyID:     raw[constants.KeyIDPos],
			Seq:       raw[constants.SeqPos],
		},
		Footer: Footer{
			CRC16:     binary.BigEndian.Uint16(raw[footerPos:]),
			EndMarker: raw[len(raw)-1],
		},
	}
	copy(frame.Plain.DeviceID[:], raw[constants.DeviceIDPos:constants.CommandIDPos])
	copy(frame.Plain.Timestamp[:], raw[constants.TimestampPos:constants.SeqPos])

	if frame.IsEncrypted() {
		plain, err := Cipher(c.key, segment)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrFrameMalformed, "解密加密段失败", err)
		}
		segment = plain
	}

	last := len(segment) - 1
	crcOK := CRC8(segment[:last]) == segment[last]

	frame.Encrypted = Segment{
		DataLen: segment[0],
		Data:    segment[1:last],
		CRC8:    segment[last],
	}

	frame.raw = make([]byte, 0, len(raw))
	frame.raw = append(frame.raw, raw[:constants.EncryptedStartPos]...)
	frame.raw = append(frame.raw, segment...)
	frame.raw = append(frame.raw, raw[footerPos:]...)

	return frame, crcOK, nil
}

// ReplySpec 回复帧参数
type ReplySpec struct {
	DeviceID  [constants.DeviceIDSize]byte
	CommandID uint16 // 入站命令ID，编码时自动置位0x8000
	Status    byte
	Request   byte
	Extra     []byte
	Encrypt   bool
}

// EncodeReply 使用给定密钥编码回复帧
func EncodeReply(spec ReplySpec, keys Keys) ([]byte, error) {
	return NewCodec(keys).EncodeReply(spec)
}

// EncodeReply 构建回复帧
// 加密段为 [DATA_LEN, STATUS, REQUEST, EXTRA..., CRC8]，DATA_LEN = 2 + len(EXTRA)
func (c *Codec) EncodeReply(spec ReplySpec) ([]byte, error) {
	data := make([]byte, 0, 2+len(spec.Extra))
	data = append(data, spec.Status, spec.Request)
	data = append(data, spec.Extra...)

	return c.BuildFrame(FrameSpec{
		Version:   constants.ProtocolVersion,
		DeviceID:  spec.DeviceID,
		CommandID: spec.CommandID | constants.AckBit,
		Data:      data,
		Encrypt:   spec.Encrypt,
	})
}

// FrameSpec 通用帧参数，设备侧上行帧与服务端回复帧共用
type FrameSpec struct {
	Version   byte
	DeviceID  [constants.DeviceIDSize]byte
	CommandID uint16
	KeyID     byte
	Timestamp [constants.TimestampSize]byte
	Seq       byte
	Data      []byte
	Encrypt   bool
}

// BuildFrame 使用给定密钥构建帧
func BuildFrame(spec FrameSpec, keys Keys) ([]byte, error) {
	return NewCodec(keys).BuildFrame(spec)
}

// BuildFrame 按线路格式序列化一帧
func (c *Codec) BuildFrame(spec FrameSpec) ([]byte, error) {
	if len(spec.Data) > 0xFF {
		return nil, errors.Newf(errors.ErrInvalidParameter, "载荷过长: %d", len(spec.Data))
	}

	// 1. 加密段 DATA_LEN + DATA + CRC8
	segment := make([]byte, 0, len(spec.Data)+constants.EncryptedMinSize)
	segment = append(segment, byte(len(spec.Data)))
	segment = append(segment, spec.Data...)
	segment = append(segment, CRC8(segment))

	// 2. 按需加密，并置位FLAGS
	var flags byte
	if spec.Encrypt {
		enc, err := Cipher(c.key, segment)
		if err != nil {
			return nil, err
		}
		segment = enc
		flags |= constants.FlagEncrypted
	}

	// 3. HEADER + PLAIN
	frame := make([]byte, 0, constants.EncryptedStartPos+len(segment)+constants.FooterSize)
	frame = append(frame, constants.StartMarker1, constants.StartMarker2, spec.Version, flags)
	frame = append(frame, spec.DeviceID[:]...)
	frame = binary.BigEndian.AppendUint16(frame, spec.CommandID)
	frame = append(frame, spec.KeyID)
	frame = append(frame, spec.Timestamp[:]...)
	frame = append(frame, spec.Seq)
	frame = append(frame, segment...)

	// 4. CRC16覆盖此前全部字节，随后追加结束标识
	frame = binary.BigEndian.AppendUint16(frame, CRC16(frame))
	frame = append(frame, constants.EndMarker)

	return frame, nil
}
