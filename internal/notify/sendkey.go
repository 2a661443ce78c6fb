package notify

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	SendKeyEnv         = "CHECKIN_SENDKEY"
	DefaultSendKeyFile = "sendkey.txt"
	minSendKeyLength   = 10
)

// LoadDotEnv loads .env.local then .env from the working directory, variables
// already set in the environment are left alone.
func LoadDotEnv() error {
	for _, p := range []string{".env.local", ".env"} {
		err := godotenv.Load(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ResolveSendKey returns the first send key found in the environment,
// `configured` and the file at `file`. A key read from a file is only accepted
// if it is longer than 10 characters. It returns "" when there is none.
func ResolveSendKey(configured, file string) string {
	key := strings.TrimSpace(os.Getenv(SendKeyEnv))
	if key != "" {
		return key
	}
	key = strings.TrimSpace(configured)
	if key != "" {
		return key
	}

	if file == "" {
		file = DefaultSendKeyFile
	}
	contents, err := os.ReadFile(file)
	if err != nil {
		return ""
	}
	key = strings.TrimSpace(string(contents))
	if len(key) <= minSendKeyLength {
		return ""
	}
	return key
}
