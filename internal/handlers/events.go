package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

// eventChannelsForRole picks the pub/sub channels a connected client should
// hear: everyone gets their personal feed, drivers get the shared ready-order
// feed, sellers their per-seller order feed.
func eventChannelsForRole(userID, role string) []string {
	channels := []string{realtime.UserChannel(userID)}
	switch role {
	case models.RoleDriver:
		channels = append(channels, realtime.DriversChannel())
	case models.RoleSeller:
		channels = append(channels, realtime.SellerChannel(userID))
	}
	return channels
}

/*
GET /events
Server-sent event stream bridging the Redis feeds to the client. Events are
advisory; clients reconcile against the REST endpoints after a reconnect.
*/
func StreamEvents(bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /events"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		role := c.GetString("role")

		sub := bridge.Subscribe(c.Request.Context(), eventChannelsForRole(userID.Hex(), role)...)
		defer sub.Close()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ch := sub.Channel()
		c.Stream(func(w io.Writer) bool {
			select {
			case msg, open := <-ch:
				if !open {
					return false
				}
				c.SSEvent("message", msg.Payload)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
