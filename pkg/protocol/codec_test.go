package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 由独立实现生成的加密MeasureData帧: DEV0000001, cmd 0x0003, seq 7, 默认密钥
const goldenMeasureFrame = "aa5501014445563030303030303100030000000007a3f2c873eba9478d55b880206cc98af3c6da0f616b35554e6d1a6b44657a8c7fed721878b8e5d0c2781b2d2ba6db070dd16455"

func measurePayload() []byte {
	p := []byte{0x01, 0x00}
	p = append(p, "  1.25"...)
	p = append(p, "  120.5"...)
	p = append(p, "     12345.6"...)
	p = append(p, "2024-05-01 12:00:00"...)
	return p
}

func TestCRC16_Vectors(t *testing.T) {
	assert.Equal(t, uint16(0xADAD), CRC16([]byte{0x01, 0x02, 0x03}))
	assert.Equal(t, uint16(0x29B1), CRC16([]byte("123456789")))
	assert.Equal(t, uint16(0xFFFF), CRC16(nil), "空输入返回初始值")
}

func TestCRC8_ByteSum(t *testing.T) {
	for n := 0; n <= 255; n++ {
		data := make([]byte, n)
		sum := 0
		for i := range data {
			data[i] = byte(i*7 + n)
			sum += int(data[i])
		}
		require.Equal(t, byte(sum&0xFF), CRC8(data), "长度 %d", n)
	}
}

func TestDeriveKey(t *testing.T) {
	t.Run("零次迭代", func(t *testing.T) {
		key := DeriveKey([]byte("Massensors"), []byte("key2"), 0)
		assert.Equal(t, "34207e9e99d2a4f5b1c5fb6183da6cba77c8d68f914e45363df059d3805bfa9a", hex.EncodeToString(key))
	})

	t.Run("默认参数", func(t *testing.T) {
		key := DefaultKeys().Derive()
		require.Len(t, key, 32)
		assert.Equal(t, "7df69445a361ed3f3b062419275d407e41d6298daff7cd9d998d619495cf28f3", hex.EncodeToString(key))
	})

	t.Run("确定性与迭代敏感", func(t *testing.T) {
		a := DeriveKey([]byte("k1"), []byte("k2"), 10)
		b := DeriveKey([]byte("k1"), []byte("k2"), 10)
		c := DeriveKey([]byte("k1"), []byte("k2"), 11)
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})
}

func TestCipher_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("a"), []byte("b"), 3)
	inputs := [][]byte{
		{},
		{0x00},
		[]byte("hello integrator"),
		bytes.Repeat([]byte{0xAB}, 300),
	}
	for _, in := range inputs {
		enc, err := Cipher(key, in)
		require.NoError(t, err)
		dec, err := Cipher(key, enc)
		require.NoError(t, err)
		assert.Equal(t, in, dec)
	}

	_, err := Cipher(nil, []byte{1})
	assert.Error(t, err, "空密钥应返回错误")
}

func TestValidateFrame(t *testing.T) {
	golden, err := hex.DecodeString(goldenMeasureFrame)
	require.NoError(t, err)

	assert.True(t, ValidateFrame(golden))
	assert.False(t, ValidateFrame(nil))
	assert.False(t, ValidateFrame([]byte{0x55, 0x55}), "短于3字节")

	badEnd := append([]byte(nil), golden...)
	badEnd[len(badEnd)-1] = 0x54
	assert.False(t, ValidateFrame(badEnd), "结束标识错误")

	crcPos := len(golden) - 3
	for bit := 0; bit < 16; bit++ {
		flipped := append([]byte(nil), golden...)
		flipped[crcPos+bit/8] ^= 1 << (bit % 8)
		assert.False(t, ValidateFrame(flipped), "CRC16字段翻转第 %d 位", bit)
	}
}

func TestDecode_GoldenEncryptedFrame(t *testing.T) {
	golden, err := hex.DecodeString(goldenMeasureFrame)
	require.NoError(t, err)

	frame, crcOK, err := Decode(golden, DefaultKeys())
	require.NoError(t, err)
	assert.True(t, crcOK)
	assert.True(t, frame.IsEncrypted())
	assert.Equal(t, "DEV0000001", frame.DeviceID())
	assert.Equal(t, constants.CmdMeasureData, frame.CommandID())
	assert.Equal(t, byte(7), frame.Plain.Seq)
	assert.Equal(t, byte(46), frame.Encrypted.DataLen)
	assert.Equal(t, measurePayload(), frame.Data())
	assert.Len(t, frame.Raw(), len(golden))
	assert.Equal(t, golden[:constants.EncryptedStartPos], frame.Raw()[:constants.EncryptedStartPos])
}

func TestDecode_WrongKeyFailsCRC8(t *testing.T) {
	golden, err := hex.DecodeString(goldenMeasureFrame)
	require.NoError(t, err)

	_, crcOK, err := Decode(golden, Keys{Key1: "other", Key2: "key2", Iterations: 1000})
	require.NoError(t, err)
	assert.False(t, crcOK)
}

func TestDecode_TooShort(t *testing.T) {
	testCases := []struct {
		name string
		size int
	}{
		{"空帧", 0},
		{"不足HEADER+PLAIN", constants.HeaderSize + constants.PlainSize - 1},
		{"加密段不足2字节", constants.MinFrameSize - 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(make([]byte, tc.size), DefaultKeys())
			require.Error(t, err)
			assert.True(t, errors.IsErrCode(err, errors.ErrFrameMalformed))
		})
	}
}

func TestBuildFrame_MatchesGolden(t *testing.T) {
	raw, err := BuildFrame(FrameSpec{
		Version:   constants.ProtocolVersion,
		DeviceID:  PadDeviceID("DEV0000001"),
		CommandID: constants.CmdMeasureData,
		Seq:       7,
		Data:      measurePayload(),
		Encrypt:   true,
	}, DefaultKeys())
	require.NoError(t, err)
	assert.Equal(t, goldenMeasureFrame, hex.EncodeToString(raw))
}

func TestEncodeReply(t *testing.T) {
	codec := NewCodec(DefaultKeys())
	device := PadDeviceID("DEV42")

	for _, encrypt := range []bool{false, true} {
		reply, err := codec.EncodeReply(ReplySpec{
			DeviceID:  device,
			CommandID: constants.CmdMeasureData,
			Status:    constants.ReplyStatusOK,
			Request:   constants.RequestService,
			Encrypt:   encrypt,
		})
		require.NoError(t, err)
		require.True(t, ValidateFrame(reply))
		assert.Len(t, reply, constants.MinFrameSize+constants.StandardDataLen)
		assert.Equal(t, constants.ProtocolVersion, reply[2])

		frame, crcOK, err := codec.Decode(reply)
		require.NoError(t, err)
		assert.True(t, crcOK)
		assert.Equal(t, encrypt, frame.IsEncrypted())
		assert.Equal(t, "DEV42", frame.DeviceID())
		assert.Equal(t, constants.CmdMeasureData|constants.AckBit, frame.CommandID())
		assert.Equal(t, byte(constants.StandardDataLen), frame.Encrypted.DataLen)
		assert.Equal(t, []byte{constants.ReplyStatusOK, constants.RequestService}, frame.Data())
		assert.Equal(t, byte(0), frame.Plain.KeyID)
		assert.Equal(t, [3]byte{}, frame.Plain.Timestamp)
		assert.Equal(t, byte(0), frame.Plain.Seq)
	}
}

func TestEncodeReply_RoundTripsInboundIdentity(t *testing.T) {
	golden, err := hex.DecodeString(goldenMeasureFrame)
	require.NoError(t, err)

	codec := NewCodec(DefaultKeys())
	inbound, _, err := codec.Decode(golden)
	require.NoError(t, err)

	extra := []byte("2024-05-01 12:00:00")
	reply, err := codec.EncodeReply(ReplySpec{
		DeviceID:  inbound.Plain.DeviceID,
		CommandID: inbound.CommandID(),
		Status:    constants.ReplyStatusOK,
		Request:   constants.RequestNormal,
		Extra:     extra,
		Encrypt:   inbound.IsEncrypted(),
	})
	require.NoError(t, err)

	out, crcOK, err := codec.Decode(reply)
	require.NoError(t, err)
	assert.True(t, crcOK)
	assert.Equal(t, inbound.DeviceID(), out.DeviceID())
	assert.Equal(t, inbound.CommandID()|constants.AckBit, out.CommandID())
	assert.Equal(t, byte(constants.RegisterDataLen), out.Encrypted.DataLen)
	assert.Equal(t, extra, out.Data()[2:])
}

func TestBuildFrame_RejectsOversizedPayload(t *testing.T) {
	_, err := BuildFrame(FrameSpec{Data: make([]byte, 256)}, DefaultKeys())
	require.Error(t, err)
	assert.True(t, errors.IsErrCode(err, errors.ErrInvalidParameter))
}

func TestPadAndTrimDeviceID(t *testing.T) {
	padded := PadDeviceID("AB")
	assert.Equal(t, "AB        ", string(padded[:]))
	assert.Equal(t, "AB", TrimDeviceID(padded[:]))
	assert.Equal(t, "AB", TrimDeviceID([]byte("AB\x00\x00\x00\x00\x00\x00\x00\x00")))

	long := PadDeviceID("0123456789ABC")
	assert.Equal(t, "0123456789", string(long[:]))
}
