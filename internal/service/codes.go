package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"tush00nka/chitchat/internal/repository"
)

const (
	friendCodeLength   = 8
	friendCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	friendCodeAttempts = 5
)

// generateVerificationCode возвращает 6-значный код, равномерно из [100000, 999999]
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func generateFriendCode() (string, error) {
	max := big.NewInt(int64(len(friendCodeAlphabet)))
	code := make([]byte, friendCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate friend code: %w", err)
		}
		code[i] = friendCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// uniqueFriendCode генерирует коды, пока не найдёт свободный. Гонку между
// проверкой и вставкой закрывает уникальный индекс.
func uniqueFriendCode(ctx context.Context, users repository.UserRepository) (string, error) {
	for i := 0; i < friendCodeAttempts; i++ {
		code, err := generateFriendCode()
		if err != nil {
			return "", err
		}

		taken, err := users.FriendCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique friend code")
}
