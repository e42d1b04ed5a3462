package validator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/FLock-io/FLock-subnet/internal/kami"
	"github.com/FLock-io/FLock-subnet/internal/trainer"
)

// randomStringToSign builds a fresh nonce message so trainer auth headers
// cannot be replayed across cycles.
func randomStringToSign() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return fmt.Sprintf("%d:%s", time.Now().Unix(), hex.EncodeToString(nonce)), nil
}

// setupAuthHeaders signs a nonce with the validator hotkey via Kami, proving
// identity to the trainer service.
func (v *Validator) setupAuthHeaders() (trainer.AuthHeaders, error) {
	message, err := randomStringToSign()
	if err != nil {
		return trainer.AuthHeaders{}, err
	}

	resp, err := v.Kami.SignMessage(kami.SignMessageParams{Message: message})
	if err != nil {
		return trainer.AuthHeaders{}, fmt.Errorf("sign auth message: %w", err)
	}

	return trainer.AuthHeaders{
		Hotkey:    v.Hotkey,
		Signature: resp.Data.Signature,
		Message:   message,
	}, nil
}
