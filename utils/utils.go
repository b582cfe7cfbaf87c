package utils

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"os"

	"github.com/Luismorlan/dailydrop/utils/dotenv"
	"github.com/google/uuid"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// Min returns the smaller of two ints.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// TextToMd5Hash returns the hex md5 digest of the given text.
func TextToMd5Hash(text string) string {
	digest := md5.Sum([]byte(text))
	return hex.EncodeToString(digest[:])
}

// RandomAlphabetString returns a random lower case string of the given length,
// used for temp test database names.
func RandomAlphabetString(length int) string {
	res := make([]byte, length)
	for idx := range res {
		res[idx] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(res)
}

// NewUUID returns a fresh uuid string, the id format of every entity.
func NewUUID() string {
	return uuid.New().String()
}

func IsProdEnv() bool {
	return os.Getenv("DAILYDROP_ENV") == dotenv.ProdEnv
}
