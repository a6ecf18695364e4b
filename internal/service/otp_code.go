package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minOtpLength     = 4
	maxOtpLength     = 10
	defaultOtpLength = 6
)

// ResolveOtpLength 约束验证码位数在合法区间内
func ResolveOtpLength(length int) int {
	if length < minOtpLength || length > maxOtpLength {
		return defaultOtpLength
	}
	return length
}

// GenerateOtpCode 生成指定位数的数字验证码
func GenerateOtpCode(length int) (string, error) {
	length = ResolveOtpLength(length)
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String(), nil
}

// HashOtpCode 对验证码取 bcrypt 摘要，明文不落库
func HashOtpCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckOtpCode 比对提交值与摘要
func CheckOtpCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// ValidOtpCodeFormat 校验提交值为指定位数的纯数字
func ValidOtpCodeFormat(code string, length int) bool {
	length = ResolveOtpLength(length)
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
