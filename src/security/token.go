package security

import "golang.org/x/crypto/bcrypt"

// VerifyOperatorToken reports whether the presented token matches the
// configured bcrypt hash. An empty hash or token never verifies.
func VerifyOperatorToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// HashOperatorToken derives the bcrypt hash to configure for a token.
func HashOperatorToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
