package controller

import (
	"dashboard-assistant-be/internal/pkg/serverutils"
	"dashboard-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IPushController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type pushController struct {
	hub *websocket.Hub
}

func NewPushController(hub *websocket.Hub) IPushController {
	return &pushController{hub: hub}
}

// RegisterRoutes mounts the socket outside the JWT group: browsers cannot
// set headers on an upgrade, so the token may also come as ?token=
func (c *pushController) RegisterRoutes(r fiber.Router) {
	r.Get("/push/v1/ws", c.ServeWs)
}

func (c *pushController) ServeWs(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		token = serverutils.BearerToken(ctx)
	}

	claim, err := serverutils.ParseUserToken(token)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, serverutils.UnauthorizedMessage(err)))
	}
	userId, err := uuid.Parse(claim)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	if !fiberws.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return fiberws.New(func(conn *fiberws.Conn) {
		websocket.ServeConn(c.hub, conn, userId)
	})(ctx)
}
