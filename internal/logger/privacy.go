package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// minSaltLength is the minimum accepted length for LOG_HASH_SALT.
const minSaltLength = 32

var hashSalt string

// InitHashSalt loads the salt used for privacy-preserving ID hashes.
// It panics when LOG_HASH_SALT is missing or too short, so a deployment
// cannot silently log with a guessable salt.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be set to at least %d characters", minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hash8(kind string, id any) string {
	data := fmt.Sprintf("%s:%v:%s", kind, id, hashSalt)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:8]
}

// HashUserID creates a privacy-preserving hash of a Telegram user ID.
func HashUserID(userID int64) string {
	return hash8("user", userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hash8("chat", chatID)
}

// HashMemberID creates a privacy-preserving hash of a member identifier.
func HashMemberID(memberID fmt.Stringer) string {
	return hash8("member", memberID.String())
}

// SanitizeText redacts free text (descriptions, announcement bodies) for
// logging. Lengths are counted in characters, so accented names are not
// cut mid-rune.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	runes := []rune(text)
	if len(runes) <= 10 {
		return fmt.Sprintf("<%d chars>", len(runes))
	}

	return fmt.Sprintf("%s...<%d chars>", string(runes[:3]), len(runes))
}
