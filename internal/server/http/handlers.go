package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kai/internal/assistant"
	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
	"kai/internal/reminder"
)

// Handler serves the reminder API.
type Handler struct {
	assistant     *assistant.Assistant
	notifications assistant.Notifications
	tools         *assistant.ToolRegistry
	parser        *reminder.Parser
	location      *time.Location
	logger        logging.Logger

	// Now returns the current time; injectable for testing.
	Now func() time.Time
}

// ParseRequest asks for a dry-run parse. Now and Timezone default to the
// server clock and configured zone.
type ParseRequest struct {
	Text     string     `json:"text" binding:"required"`
	Now      *time.Time `json:"now,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
}

// MessageRequest is one chat utterance for the assistant.
type MessageRequest struct {
	Text string     `json:"text"`
	Now  *time.Time `json:"now,omitempty"`
}

// ToolCallRequest invokes a function-calling tool with raw JSON arguments.
type ToolCallRequest struct {
	CallID    string          `json:"call_id,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (h *Handler) now() time.Time {
	now := h.Now()
	if h.location != nil {
		now = now.In(h.location)
	}
	return now
}

// HandleParse runs the parser without saving anything.
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "text is required")
		return
	}
	now := h.now()
	if req.Now != nil {
		now = *req.Now
	}
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			writeBadRequest(c, "unknown timezone: "+tz)
			return
		}
		now = now.In(loc)
	}
	parsed := h.parser.Parse(req.Text, now)
	if parsed == nil {
		writeData(c, http.StatusOK, "not a reminder", nil)
		return
	}
	writeData(c, http.StatusOK, "", parsed)
}

// HandleMessage passes an utterance to the assistant.
func (h *Handler) HandleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	areq := assistant.Request{UserID: userID(c), Text: req.Text}
	if req.Now != nil {
		areq.Now = *req.Now
	}
	reply, err := h.assistant.Handle(c.Request.Context(), areq)
	if err != nil {
		status, _ := errorStatus(err)
		logging.FromContext(c.Request.Context(), h.logger).Warn("assistant reply failed: %v", err)
		c.JSON(status, APIResponse{Success: false, Error: reply.Message, Data: reply})
		return
	}
	writeData(c, http.StatusOK, reply.Message, reply)
}

// HandleConfirm saves the user's pending draft.
func (h *Handler) HandleConfirm(c *gin.Context) {
	reply, err := h.assistant.Confirm(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusCreated, reply.Message, reply)
}

// HandleDiscard drops the user's pending draft.
func (h *Handler) HandleDiscard(c *gin.Context) {
	reply, ok := h.assistant.Discard(c.Request.Context(), userID(c))
	if !ok {
		writeError(c, h.logger, assistant.ErrNothingPending)
		return
	}
	writeData(c, http.StatusOK, reply.Message, reply)
}

// HandleListReminders returns every reminder the user owns.
func (h *Handler) HandleListReminders(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}
	writeData(c, http.StatusOK, "", list)
}

// HandleCancelReminder deletes one of the user's reminders.
func (h *Handler) HandleCancelReminder(c *gin.Context) {
	n, err := h.notifications.Cancel(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, "reminder cancelled", n)
}

// HandleUpdateReminder applies a partial update of title, scheduledFor and frequency.
func (h *Handler) HandleUpdateReminder(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	patch, err := assistant.PatchFromArguments(body)
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	n, err := h.notifications.Update(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, "reminder updated", n)
}

// HandleListTools returns the function-calling definitions.
func (h *Handler) HandleListTools(c *gin.Context) {
	writeData(c, http.StatusOK, "", h.tools.Definitions())
}

// HandleExecuteTool runs one tool call for the user. Tool-level failures are
// reported in the result with a 422 status.
func (h *Handler) HandleExecuteTool(c *gin.Context) {
	var req ToolCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	name := c.Param("name")
	if _, ok := h.tools.Get(name); !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "unknown tool: " + name})
		return
	}
	result, err := h.tools.ExecuteRaw(c.Request.Context(), req.CallID, name, rawArguments(req.Arguments))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if result.Error != nil {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: result.Content, Data: result})
		return
	}
	writeData(c, http.StatusOK, "", result)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": h.Now().UTC().Format(time.RFC3339)})
}

// rawArguments accepts arguments as a JSON object or as a JSON string
// holding one, the way chat completion APIs emit them.
func rawArguments(raw json.RawMessage) string {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return encoded
	}
	return string(raw)
}

func userID(c *gin.Context) string {
	return observability.UserIDFromContext(c.Request.Context())
}
