package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPasscode 使用 bcrypt 生成卡片查看口令的哈希。
func HashPasscode(passcode string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash passcode: %w", err)
	}
	return string(bytes), nil
}

// CheckPasscode 校验口令是否匹配哈希。
func CheckPasscode(passcode, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
