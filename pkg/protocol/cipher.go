package protocol

import (
	"crypto/rc4"
	"crypto/sha256"
	"fmt"

	"github.com/massensors/py-server3/pkg/constants"
)

// Keys 加密段密钥参数
type Keys struct {
	Key1       string `mapstructure:"key1" yaml:"key1"`
	Key2       string `mapstructure:"key2" yaml:"key2"`
	Iterations int    `mapstructure:"iterations" yaml:"iterations"`
}

// DefaultKeys 返回现网设备使用的默认密钥参数
func DefaultKeys() Keys {
	return Keys{
		Key1:       constants.DefaultKey1,
		Key2:       constants.DefaultKey2,
		Iterations: constants.DefaultIterations,
	}
}

// DeriveKey 派生RC4密钥
// key = SHA256(key1||key2)，随后迭代 iterations 次 key = SHA256(key||key1||key2)，
// 输出完整的32字节摘要
func DeriveKey(key1, key2 []byte, iterations int) []byte {
	h := sha256.New()
	h.Write(key1)
	h.Write(key2)
	key := h.Sum(nil)

	for i := 0; i < iterations; i++ {
		h.Reset()
		h.Write(key)
		h.Write(key1)
		h.Write(key2)
		key = h.Sum(key[:0])
	}
	return key
}

// Derive 根据当前参数派生密钥
func (k Keys) Derive() []byte {
	return DeriveKey([]byte(k.Key1), []byte(k.Key2), k.Iterations)
}

// Cipher 使用RC4密钥流对数据做一次异或，加密与解密共用
// 返回新的切片，不修改输入
func Cipher(key, data []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("初始化RC4失败: %w", err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}
