package tickets

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// GenerateQRToken derives the scannable token for a ticket. The token is
// a SHA3-256 digest over the ticket ID, a random nonce, and the signing
// secret, so tokens cannot be forged from ticket IDs alone.
func GenerateQRToken(ticketID uuid.UUID, secret string) string {
	nonce := uuid.New()
	digest := sha3.Sum256([]byte(fmt.Sprintf("%s:%s:%s", ticketID, nonce, secret)))
	return hex.EncodeToString(digest[:])
}
