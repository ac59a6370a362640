package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"llamabridge/internal/model"
	"llamabridge/internal/service"
)

type tokenEvent struct {
	Token string `json:"token"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// QueryDocuments answers a question grounded in the indexed documents,
// streaming the model output as server-sent events. Retrieval runs before the
// stream begins so validation and lookup failures still map to HTTP statuses.
func QueryDocuments(querySvc service.QueryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.QueryRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}
		question := strings.TrimSpace(req.Question)
		if question == "" {
			return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
		}

		relevant, err := querySvc.Retrieve(c.UserContext(), question)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrQuestionRequired):
				return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
			case errors.Is(err, service.ErrNoDocuments):
				return writeError(c, fiber.StatusNotFound, "NO_DOCUMENTS", "no documents have been uploaded yet")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		// The Fiber context is recycled once this handler returns, so the
		// stream callback must not touch c and runs on a detached context.
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			genErr := querySvc.Generate(context.Background(), question, relevant, func(token string) error {
				payload, err := json.Marshal(tokenEvent{Token: token})
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return err
				}
				return w.Flush()
			})
			if genErr != nil {
				payload, _ := json.Marshal(errorEvent{Error: "generation failed"})
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
				w.Flush()
				return
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			w.Flush()
		}))
		return nil
	}
}
