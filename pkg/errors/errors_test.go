package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Format(t *testing.T) {
	err := New(ErrDeviceNotFound, "设备不存在")
	assert.Equal(t, "[1003] 设备不存在", err.Error())

	cause := stderrors.New("连接被拒绝")
	wrapped := Wrap(ErrRepositoryFailure, "写入失败", cause)
	assert.Contains(t, wrapped.Error(), "写入失败: 连接被拒绝")
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestIsErrCode_WalksChain(t *testing.T) {
	inner := Newf(ErrChecksumInvalid, "CRC8不匹配: %02x", 0x12)
	outer := Wrap(ErrRepositoryFailure, "处理失败", fmt.Errorf("上下文: %w", inner))

	assert.True(t, IsErrCode(outer, ErrRepositoryFailure))
	assert.True(t, IsErrCode(outer, ErrChecksumInvalid))
	assert.False(t, IsErrCode(outer, ErrDeviceNotFound))
	assert.False(t, IsErrCode(nil, ErrUnknown))
	assert.Equal(t, ErrRepositoryFailure, CodeOf(outer))
	assert.Equal(t, ErrUnknown, CodeOf(stderrors.New("普通错误")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrFrameMalformed, http.StatusBadRequest},
		{ErrChecksumInvalid, http.StatusBadRequest},
		{ErrInvalidParameter, http.StatusBadRequest},
		{ErrNoSelectedDevice, http.StatusBadRequest},
		{ErrDeviceNotFound, http.StatusNotFound},
		{ErrNotImplemented, http.StatusNotImplemented},
		{ErrPayloadTruncated, http.StatusInternalServerError},
		{ErrRepositoryFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(New(tt.code, "x")))
		})
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("普通错误")))
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "frame_malformed", ErrFrameMalformed.String())
	assert.Equal(t, "code_42", ErrorCode(42).String())
}
