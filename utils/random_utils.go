package utils

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomInt32 返回一个密码学安全的随机32位整数，用于生成内置账号的初始口令
func RandomInt32() int32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("read random bytes failed: " + err.Error())
	}
	return int32(binary.BigEndian.Uint32(buf[:]))
}
