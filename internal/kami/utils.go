package kami

import (
	"github.com/FLock-io/FLock-subnet/internal/core"
)

// GetHotkey returns the node's own hotkey address.
func GetHotkey(k Interface) (string, error) {
	keyringPair, err := k.GetKeyringPair()
	if err != nil {
		return "", err
	}
	return keyringPair.Data.KeyringPair.Address, nil
}

// ParticipantAt builds the participant view for one UID of the metagraph.
// Registration block falls back to 0 when the chain omits the column.
func ParticipantAt(m *SubnetMetagraph, uid int) core.Participant {
	p := core.Participant{UID: uid}
	if uid < len(m.Hotkeys) {
		p.Hotkey = m.Hotkeys[uid]
	}
	if uid < len(m.BlockAtRegistration) {
		p.RegistrationBlock = m.BlockAtRegistration[uid]
	}
	return p
}
