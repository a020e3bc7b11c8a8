// internal/app/system/credentials/password.go
package credentials

import (
	"crypto/rand"
	"math/big"
)

// passwordAlphabet excludes visually confusable characters (0/O, 1/l/I) so a
// front-desk admin can read a generated password to a new member over the
// counter without ambiguity.
const passwordAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz"

// PasswordLength is the fixed length of generated portal passwords.
const PasswordLength = 12

// GeneratePassword returns a fresh random password drawn from the
// unambiguous alphabet. It uses crypto/rand; an entropy failure is
// unrecoverable and panics.
func GeneratePassword() string {
	buf := make([]byte, PasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("credentials: entropy source failed: " + err.Error())
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf)
}
