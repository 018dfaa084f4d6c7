package htmx

import (
	"fmt"

	"sportstrivia/internal/models"
)

//go:generate templ generate

func seats(r models.RoomSnapshot) string {
	return fmt.Sprintf("%d/%d", len(r.Players), r.MaxPlayers)
}

func hostName(r models.RoomSnapshot) string {
	for _, p := range r.Players {
		if p.IsHost {
			return p.Username
		}
	}
	return ""
}
