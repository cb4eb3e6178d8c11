package chat

import (
	"fmt"

	"github.com/caremesh/consult-chat-api/models"
)

// RoomToken derives the canonical storage token for a room from the join
// payload. The consultant derives userId-patientId-roomId, the patient
// derives consultId-userId-roomId; the two coincide only when each side's
// supplied cross-identifier matches the counterpart's real id. A missing
// cross-identifier collapses to the empty string. Pure function, shared by
// both join paths so that any two processes agree on the token.
func RoomToken(role models.Role, userID, patientID, consultID, roomID string) string {
	if role == models.RoleConsult {
		return fmt.Sprintf("%s-%s-%s", userID, patientID, roomID)
	}
	return fmt.Sprintf("%s-%s-%s", consultID, userID, roomID)
}
