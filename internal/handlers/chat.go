package handlers

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"koalitos/backend/internal/chat"
	"koalitos/backend/internal/middleware"
)

const maxContentLength = 2000

// ChatHandler exposes the encrypted chat operations over HTTP.
type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// CreateRoomRequest represents the create room request body
type CreateRoomRequest struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participantIds"`
}

// SendMessageRequest represents the send message request body
type SendMessageRequest struct {
	Content string `json:"content"`
}

// CreateRoom creates a group room with the caller and the listed users.
func (h *ChatHandler) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if len(strings.TrimSpace(req.Name)) < 3 {
		return badRequest(c, "Room name must be at least 3 characters")
	}
	if len(req.ParticipantIDs) < 1 {
		return badRequest(c, "At least one participant is required")
	}
	for _, id := range req.ParticipantIDs {
		if _, err := uuid.Parse(id); err != nil {
			return badRequest(c, "Invalid participant ID: "+id)
		}
	}

	room, err := h.service.CreateRoom(c.Context(), middleware.CurrentUser(c), req.Name, req.ParticipantIDs)
	if err != nil {
		return fail(c, err)
	}
	return created(c, room)
}

// ListRooms returns the caller's rooms, most recently updated first.
func (h *ChatHandler) ListRooms(c *fiber.Ctx) error {
	rooms, err := h.service.ListRooms(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, rooms)
}

// StartDirectChat resolves or creates the direct room with a user by handle.
func (h *ChatHandler) StartDirectChat(c *fiber.Ctx) error {
	room, err := h.service.StartDirectChat(c.Context(), middleware.CurrentUser(c), c.Params("handle"))
	if err != nil {
		return fail(c, err)
	}
	return created(c, room)
}

// SendDirectMessage sends into the direct room with a user by handle.
func (h *ChatHandler) SendDirectMessage(c *fiber.Ctx) error {
	content, errMsg := parseContent(c)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	view, err := h.service.SendDirectMessage(c.Context(), middleware.CurrentUser(c), c.Params("handle"), content)
	if err != nil {
		return fail(c, err)
	}
	return created(c, view)
}

// GetDirectMessages pages through direct history with a user by handle.
func (h *ChatHandler) GetDirectMessages(c *fiber.Ctx) error {
	limit, cursor, errMsg := parsePagination(c)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	views, err := h.service.GetDirectMessages(c.Context(), middleware.CurrentUser(c), c.Params("handle"), limit, cursor)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, views)
}

// SendMessage sends an encrypted message into a room.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	if _, err := uuid.Parse(roomID); err != nil {
		return badRequest(c, "Invalid room ID")
	}

	content, errMsg := parseContent(c)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	view, err := h.service.SendMessage(c.Context(), roomID, middleware.CurrentUser(c), content)
	if err != nil {
		return fail(c, err)
	}
	return created(c, view)
}

// GetMessages pages through a room's decrypted history, oldest first.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	if _, err := uuid.Parse(roomID); err != nil {
		return badRequest(c, "Invalid room ID")
	}

	limit, cursor, errMsg := parsePagination(c)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	views, err := h.service.GetMessages(c.Context(), roomID, middleware.CurrentUser(c), limit, cursor)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, views)
}

// MarkMessageAsRead stamps the caller's read receipt on a message.
func (h *ChatHandler) MarkMessageAsRead(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	messageID := c.Params("messageId")
	if _, err := uuid.Parse(roomID); err != nil {
		return badRequest(c, "Invalid room ID")
	}
	if _, err := uuid.Parse(messageID); err != nil {
		return badRequest(c, "Invalid message ID")
	}

	confirmation, err := h.service.MarkMessageAsRead(c.Context(), roomID, messageID, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, confirmation)
}

func parseContent(c *fiber.Ctx) (string, string) {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "Invalid request body"
	}
	if req.Content == "" {
		return "", "Message content is required"
	}
	// The bound is on characters, not bytes.
	if utf8.RuneCountInString(req.Content) > maxContentLength {
		return "", "Message content must be at most 2000 characters"
	}
	return req.Content, ""
}

func parsePagination(c *fiber.Ctx) (int, string, string) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > chat.MaxPageSize {
			return 0, "", "limit must be a positive integer up to 100"
		}
		limit = parsed
	}

	cursor := c.Query("cursor")
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return 0, "", "cursor must be a message ID"
		}
	}
	return limit, cursor, ""
}
