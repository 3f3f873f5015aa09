package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/assistant"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/service"
)

// BinView is the dashboard payload for one bin.
type BinView struct {
	Data   domain.TrashCanData `json:"data"`
	Status domain.TrashStatus  `json:"status"`
	Logs   []domain.UsageLog   `json:"logs"`
}

type ChatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

type ChatResponse struct {
	Reply domain.ChatMessage `json:"reply"`
}

type AssistantInfo struct {
	Greeting     domain.ChatMessage `json:"greeting"`
	QuickPrompts []string           `json:"quickPrompts"`
}

// NewApp builds the fiber app with middleware and all routes.
func NewApp(svcs *service.Services, asst *assistant.Assistant) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ecobin-api",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger)

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	Register(app, svcs, asst)
	return app
}

func Register(app *fiber.App, svcs *service.Services, asst *assistant.Assistant) {
	g := app.Group("/")

	g.Get("bin", func(c *fiber.Ctx) error {
		return c.JSON(binView(svcs.Bin))
	})
	g.Post("bin/lid/toggle", func(c *fiber.Ctx) error {
		if err := svcs.Bin.ToggleLid(c.UserContext()); err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "data": binView(svcs.Bin)})
		}
		return c.JSON(binView(svcs.Bin))
	})
	g.Post("bin/empty", func(c *fiber.Ctx) error {
		if err := svcs.Bin.EmptyTrash(c.UserContext()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "data": binView(svcs.Bin)})
		}
		return c.JSON(binView(svcs.Bin))
	})

	g.Get("stats/today", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"count": svcs.Stats.TodayCount(c.UserContext())})
	})
	g.Get("stats/compare", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Stats.TodayVsYesterday(c.UserContext()))
	})
	g.Get("stats/weekly", func(c *fiber.Ctx) error {
		days, err := svcs.Stats.Weekly(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(days)
	})
	g.Get("history", func(c *fiber.Ctx) error {
		logs, err := svcs.Stats.History(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(logs)
	})

	g.Get("assistant", func(c *fiber.Ctx) error {
		return c.JSON(AssistantInfo{Greeting: assistant.Greeting(), QuickPrompts: assistant.QuickPrompts})
	})
	g.Post("assistant/chat", func(c *fiber.Ctx) error {
		var req ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		reply, err := asst.Ask(c.UserContext(), req.Message, req.History)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ChatResponse{Reply: reply})
	})

	g.Get("maintenance", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Maintenance.Predict(c.UserContext()))
	})

	g.Get("reports", func(c *fiber.Ctx) error {
		keys, err := svcs.Reports.List(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"keys": keys})
	})
	g.Post("reports/weekly", func(c *fiber.Ctx) error {
		archived, err := svcs.Reports.ArchiveWeekly(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(archived)
	})
}

func binView(b *service.BinService) BinView {
	return BinView{Data: b.Snapshot(), Status: b.Status(), Logs: b.Logs()}
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, assistant.ErrEmptyPrompt):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrCloudDisabled):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("took", time.Since(start)).
		Msg("request")
	return err
}
