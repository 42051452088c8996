package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP 生成 6 位数字一次性验证码
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
