package main

import (
	"github.com/akinalp/circles/services"
	"github.com/akinalp/circles/ws"
)

// registerHubCallbacks connects the hub to the service layer. The hub lives
// in ws and must not import services, so the wiring happens here.
func registerHubCallbacks(hub *ws.Hub, notificationService services.NotificationService) {
	hub.SetReadyBuilder(notificationService.BuildReady)
}
