// Package httpapi serves the reply workflow over a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hal9000y/gmail-reply-mcp/internal/confirm"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

type replyProtocol interface {
	Prepare(ctx context.Context, req confirm.PrepareRequest) (confirm.PrepareResult, error)
	Confirm(ctx context.Context, token, editedBody string) (confirm.ConfirmResult, error)
	Cancel(token string) (confirm.ConfirmResult, error)
}

type PrepareRequest struct {
	Instructions  string `json:"instructions"`
	ThreadID      string `json:"thread_id"`
	TalkingPoints string `json:"talking_points"`
	Replaces      string `json:"replaces"`
}

type Warning struct {
	Kind    string `json:"kind"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

type Candidate struct {
	ThreadID     string   `json:"thread_id"`
	Subject      string   `json:"subject"`
	Participants []string `json:"participants"`
}

type PrepareResponse struct {
	ConfirmationID string    `json:"confirmation_id"`
	Preview        string    `json:"preview"`
	ThreadID       string    `json:"thread_id"`
	To             []string  `json:"to"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Confidence     string    `json:"confidence"`
	Warnings       []Warning `json:"warnings"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type ConfirmRequest struct {
	EditedBody string `json:"edited_body"`
}

type ConfirmResponse struct {
	Success   bool   `json:"success"`
	DraftID   string `json:"draft_id,omitempty"`
	State     string `json:"state,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable"`
	Message   string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error      string      `json:"error"`
	Message    string      `json:"message"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type handler struct {
	protocol replyProtocol
}

// New returns the echo instance serving /api/replies. Request logs go to the
// writer of the standard logger at the time of the call.
func New(protocol replyProtocol) *echo.Echo {
	h := &handler{protocol: protocol}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// stdout may carry the MCP stdio transport
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Output: log.Writer()}))
	e.Use(middleware.Recover())

	e.POST("/api/replies", h.prepare)
	e.POST("/api/replies/:token/confirm", h.confirm)
	e.DELETE("/api/replies/:token", h.cancel)

	return e
}

func (h *handler) prepare(c echo.Context) error {
	var req PrepareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
	}
	if req.Instructions == "" && req.ThreadID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "instructions or thread_id is required"})
	}

	res, err := h.protocol.Prepare(c.Request().Context(), confirm.PrepareRequest{
		Instructions:  req.Instructions,
		ThreadHint:    req.ThreadID,
		TalkingPoints: req.TalkingPoints,
		Replaces:      req.Replaces,
	})
	if err != nil {
		return prepareError(c, err)
	}

	warnings := make([]Warning, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, Warning{Kind: string(w.Kind), Source: w.Source, Message: w.Message})
	}
	to := res.Draft.To
	if to == nil {
		to = []string{}
	}

	return c.JSON(http.StatusCreated, PrepareResponse{
		ConfirmationID: res.Token,
		Preview:        res.Preview,
		ThreadID:       res.Draft.ThreadID,
		To:             to,
		Subject:        res.Draft.Subject,
		Body:           res.Draft.Body,
		Confidence:     string(res.Draft.Confidence),
		Warnings:       warnings,
		ExpiresAt:      res.ExpiresAt.UTC(),
	})
}

func prepareError(c echo.Context, err error) error {
	var (
		notFound  *reply.NotFoundError
		ambiguous *reply.AmbiguousTargetError
		genErr    *reply.GenerationError
	)
	switch {
	case errors.As(err, &ambiguous):
		candidates := make([]Candidate, 0, len(ambiguous.Candidates))
		for _, cand := range ambiguous.Candidates {
			candidates = append(candidates, Candidate{
				ThreadID:     cand.ThreadID,
				Subject:      cand.Subject,
				Participants: cand.Participants,
			})
		}
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "ambiguous_target", Message: err.Error(), Candidates: candidates})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "thread_not_found", Message: err.Error()})
	case errors.As(err, &genErr):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "generation_failed", Message: err.Error()})
	default:
		c.Logger().Error("prepare failed: ", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: err.Error()})
	}
}

func (h *handler) confirm(c echo.Context) error {
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
	}

	res, err := h.protocol.Confirm(c.Request().Context(), c.Param("token"), req.EditedBody)
	if err != nil {
		status, body := outcomeError(err)
		if status == http.StatusInternalServerError {
			c.Logger().Error("confirm failed: ", err)
		}
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, ConfirmResponse{
		Success: true,
		DraftID: res.DraftID,
		State:   string(res.State),
	})
}

func (h *handler) cancel(c echo.Context) error {
	res, err := h.protocol.Cancel(c.Param("token"))
	if err != nil {
		status, body := outcomeError(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, ConfirmResponse{Success: true, State: string(res.State)})
}

func outcomeError(err error) (int, ConfirmResponse) {
	body := ConfirmResponse{Error: string(reply.Code(err)), Message: err.Error()}

	switch reply.Code(err) {
	case reply.CodeExpired:
		return http.StatusGone, body
	case reply.CodeNotFound:
		return http.StatusNotFound, body
	case reply.CodeMailCreationFailed:
		var downstream *reply.DownstreamCreationError
		body.Retryable = errors.As(err, &downstream) && downstream.Retryable
		return http.StatusBadGateway, body
	default:
		body.Error = "internal"
		return http.StatusInternalServerError, body
	}
}
