package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"bheem-chat/handler"
	"bheem-chat/middleware"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.ConversationHandler
	*handler.MessageHandler
	*handler.InvitationHandler
	*handler.CallHandler
	*handler.MeetHandler
	*handler.WebSocketHandler
	AttachmentDir     string
	AttachmentBaseURL string
}

func (rc *ConfigRoute) GetRoute() {
	rc.GetPublicRoute()
	rc.GetProtectedRoute()
	rc.GetWebSocketRoute()
}

func (rc *ConfigRoute) GetPublicRoute() {
	if rc.AttachmentDir != "" {
		rc.App.Static(rc.AttachmentBaseURL, rc.AttachmentDir)
	}

	app := rc.App.Group("/api/v1")
	app.Post("/waiting-room/:code/join", rc.Middleware.OptionalUser, rc.MeetHandler.JoinWaitingRoom)
	app.Get("/waiting-room/:code/status/:id", rc.MeetHandler.PollStatus)
	app.Delete("/waiting-room/:code/leave/:id", rc.MeetHandler.Leave)
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1", rc.Middleware.JWTProtected)

	app.Post("/conversations", rc.ConversationHandler.CreateConversation)
	app.Get("/conversations", rc.ConversationHandler.GetConversations)
	app.Get("/conversations/unread", rc.ConversationHandler.GetUnread)
	app.Get("/conversations/:id", rc.ConversationHandler.GetConversation)
	app.Patch("/conversations/:id", rc.ConversationHandler.UpdateConversation)
	app.Post("/conversations/:id/archive", rc.ConversationHandler.ArchiveConversation)
	app.Post("/conversations/:id/unarchive", rc.ConversationHandler.UnarchiveConversation)
	app.Get("/conversations/:id/participants", rc.ConversationHandler.GetParticipants)
	app.Post("/conversations/:id/participants", rc.ConversationHandler.AddParticipant)
	app.Delete("/conversations/:id/participants/:userId", rc.ConversationHandler.RemoveParticipant)
	app.Post("/conversations/:id/mute", rc.ConversationHandler.ToggleMute)
	app.Post("/conversations/:id/read", rc.ConversationHandler.MarkRead)
	app.Get("/conversations/:id/export", rc.ConversationHandler.ExportTranscript)
	app.Get("/conversations/:id/stats", rc.ConversationHandler.GetStats)

	app.Get("/conversations/:id/messages", rc.MessageHandler.GetMessages)
	app.Post("/conversations/:id/messages", rc.MessageHandler.SendMessage)
	app.Get("/conversations/:id/messages/search", rc.MessageHandler.SearchMessages)
	app.Post("/conversations/:id/attachments", rc.MessageHandler.UploadAttachment)
	app.Get("/messages/:id", rc.MessageHandler.GetMessage)
	app.Put("/messages/:id", rc.MessageHandler.EditMessage)
	app.Delete("/messages/:id", rc.MessageHandler.DeleteMessage)
	app.Post("/messages/:id/react", rc.MessageHandler.ToggleReaction)

	app.Post("/conversations/:id/invitations", rc.InvitationHandler.Invite)
	app.Post("/invitations/:token/accept", rc.InvitationHandler.AcceptInvitation)
	app.Post("/invitations/:token/decline", rc.InvitationHandler.DeclineInvitation)

	app.Post("/conversations/:id/calls", rc.CallHandler.StartCall)
	app.Post("/calls/:id/join", rc.CallHandler.JoinCall)
	app.Post("/calls/:id/decline", rc.CallHandler.DeclineCall)
	app.Post("/calls/:id/end", rc.CallHandler.EndCall)

	app.Post("/meet/rooms", rc.MeetHandler.CreateRoom)
	app.Patch("/meet/rooms/:code/waiting-room", rc.MeetHandler.ToggleWaitingRoom)
	app.Get("/waiting-room/:code/participants", rc.MeetHandler.GetWaitingParticipants)
	app.Post("/waiting-room/:code/admit-all", rc.MeetHandler.AdmitAll)
	app.Post("/waiting-room/:code/admit/:id", rc.MeetHandler.Admit)
	app.Post("/waiting-room/:code/reject/:id", rc.MeetHandler.Reject)
}

func (rc *ConfigRoute) GetWebSocketRoute() {
	ws := rc.App.Group("/ws", rc.WebSocketHandler.Upgrade, rc.Middleware.JWTProtected)
	ws.Get("/conversations/:id", rc.WebSocketHandler.AuthorizeConversation, websocket.New(rc.WebSocketHandler.StreamConversation))
	ws.Get("/waiting-room/:code", rc.WebSocketHandler.AuthorizeWaitingRoomHost, websocket.New(rc.WebSocketHandler.StreamWaitingRoom))
}
