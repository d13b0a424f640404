package utils

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// TicketPayload is the text encoded into a reservation's QR ticket.
func TicketPayload(reservationID, eventID, userID uint64) string {
	return fmt.Sprintf("reservation:%d;event:%d;user:%d", reservationID, eventID, userID)
}

// RenderTicket encodes payload as a size x size PNG.
func RenderTicket(payload string, size int) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, size)
}
