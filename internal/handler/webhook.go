package handler

import (
	"log"
	"net/http"

	"ivr-flow/internal/ivr"
	"ivr-flow/internal/middleware"
	"ivr-flow/internal/plivoxml"
	"ivr-flow/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidCallParams  = "Invalid call parameters"
	msgInvalidInputParams = "Invalid input parameters"
)

// WebhookHandler adapts Plivo's form-encoded callbacks to the engine.
type WebhookHandler struct {
	Engine *ivr.Engine
}

func NewWebhookHandler(engine *ivr.Engine) *WebhookHandler {
	return &WebhookHandler{Engine: engine}
}

// Answer handles the incoming-call webhook.
func (h *WebhookHandler) Answer(c *gin.Context) {
	call := ivr.IncomingCall{
		CallUUID: c.PostForm("CallUUID"),
		From:     c.PostForm("From"),
		To:       c.PostForm("To"),
	}
	log.Printf("answer: request_id=%s call=%s from=%s to=%s", middleware.RequestID(c), call.CallUUID, call.From, call.To)

	if call.CallUUID == "" || call.From == "" || call.To == "" {
		util.XML(c, plivoxml.SpeakHangup(msgInvalidCallParams, plivoxml.Voice{}))
		return
	}
	util.XML(c, h.Engine.HandleIncomingCall(c.Request.Context(), call))
}

// HandleInput handles the GetDigits callback. Malformed deliveries get a
// spoken error and leave the call open.
func (h *WebhookHandler) HandleInput(c *gin.Context) {
	callUUID := c.PostForm("CallUUID")
	digits := c.PostForm("Digits")
	log.Printf("input: request_id=%s call=%s digits=%s", middleware.RequestID(c), callUUID, digits)

	if callUUID == "" || digits == "" {
		util.XML(c, plivoxml.Speak(msgInvalidInputParams, plivoxml.Voice{}))
		return
	}
	if err := util.ValidateDigits(digits); err != nil {
		log.Printf("input: request_id=%s call=%s rejected: %v", middleware.RequestID(c), callUUID, err)
		util.XML(c, plivoxml.Speak(msgInvalidInputParams, plivoxml.Voice{}))
		return
	}
	util.XML(c, h.Engine.HandleDigits(c.Request.Context(), callUUID, digits))
}

// Hangup finalizes the call. Plivo only needs an empty 200.
func (h *WebhookHandler) Hangup(c *gin.Context) {
	ev := ivr.HangupEvent{
		CallUUID: c.PostForm("CallUUID"),
		Cause:    c.PostForm("HangupCause"),
		Duration: util.ParseDuration(c.PostForm("Duration")),
	}
	log.Printf("hangup: request_id=%s call=%s cause=%s duration=%ds", middleware.RequestID(c), ev.CallUUID, ev.Cause, ev.Duration)

	if ev.CallUUID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	h.Engine.HandleHangup(c.Request.Context(), ev)
	c.Status(http.StatusOK)
}
