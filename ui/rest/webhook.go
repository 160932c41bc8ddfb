package rest

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	domainMessaging "github.com/sharebite/sharebite-bot/domains/messaging"
	domainWebhook "github.com/sharebite/sharebite-bot/domains/webhook"
	"github.com/sharebite/sharebite-bot/pkg/utils"
)

// secretTokenHeader is echoed by the platform on every delivery after being
// registered via setWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type Webhook struct {
	Service domainWebhook.IWebhookUsecase
	Secret  string
}

func InitRestWebhook(app fiber.Router, service domainWebhook.IWebhookUsecase, secret string) Webhook {
	rest := Webhook{Service: service, Secret: secret}
	app.Post("/webhook", rest.Receive)
	return rest
}

// Receive handles one platform event per call. Forged deliveries (bad or
// missing secret) are rejected before any parsing side effects.
func (handler *Webhook) Receive(c *fiber.Ctx) error {
	if handler.Secret != "" && c.Get(secretTokenHeader) != handler.Secret {
		logrus.Warn("[WEBHOOK] rejected delivery with invalid secret token")
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
			Status:  fiber.StatusUnauthorized,
			Code:    "INVALID_SECRET",
			Message: "invalid webhook secret token",
		})
	}

	var update domainMessaging.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		logrus.Warnf("[WEBHOOK] unparseable update payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  fiber.StatusBadRequest,
			Code:    "BAD_PAYLOAD",
			Message: "unparseable update payload",
		})
	}

	if err := handler.Service.HandleUpdate(c.UserContext(), &update); err != nil {
		// Non-2xx makes the platform redeliver; handling tolerates that.
		logrus.WithFields(logrus.Fields{
			"update_id": update.UpdateID,
			"error":     err,
		}).Error("[WEBHOOK] update handling failed")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
			Status:  fiber.StatusInternalServerError,
			Code:    "HANDLING_FAILED",
			Message: "update handling failed",
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Update processed",
	})
}
