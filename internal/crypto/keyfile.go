package crypto

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для растяжения секрета keyfile
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// SecretSize - размер случайного секрета устройства в байтах
	SecretSize = 32
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// keyfile хранит секрет устройства и соль на диске (0600)
// Ключ шифрования токенов никогда не пишется на диск напрямую,
// он каждый раз выводится из секрета через Argon2id.
type keyfile struct {
	Secret []byte `json:"secret"`
	Salt   []byte `json:"salt"`
}

// DeriveKey выводит 32-байтовый ключ шифрования из секрета и соли
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize)
}

// LoadOrCreateKey возвращает ключ шифрования токенов для этого устройства
// При первом запуске генерирует keyfile по указанному пути
func LoadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var kf keyfile
		if err := json.Unmarshal(data, &kf); err != nil {
			return nil, fmt.Errorf("failed to parse keyfile: %w", err)
		}
		if len(kf.Secret) != SecretSize || len(kf.Salt) != SaltSize {
			return nil, fmt.Errorf("keyfile is corrupted")
		}
		return DeriveKey(kf.Secret, kf.Salt), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}

	// Первый запуск - генерируем новый секрет и соль
	kf := keyfile{
		Secret: make([]byte, SecretSize),
		Salt:   make([]byte, SaltSize),
	}
	if _, err := rand.Read(kf.Secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	if _, err := rand.Read(kf.Salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	data, err = json.Marshal(kf)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keyfile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keyfile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write keyfile: %w", err)
	}

	return DeriveKey(kf.Secret, kf.Salt), nil
}
