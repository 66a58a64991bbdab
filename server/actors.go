package server

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

// OrderProcessor hands freshly stored orders to in-process actors so the
// request path returns as soon as the blob is written. The fulfillment actor
// queues the confirmation through the notification actor.
type OrderProcessor struct {
	system     *actor.ActorSystem
	fulfillPID *actor.PID
}

type orderPlaced struct {
	Order *models.Order
}

type sendConfirmation struct {
	OrderID  string
	FullName string
	Total    float64
}

type fulfillmentActor struct {
	notifyPID *actor.PID
	logger    *zap.Logger
}

func (a *fulfillmentActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *orderPlaced:
		a.logger.Info("Order queued for fulfillment",
			zap.String("order_id", msg.Order.ID),
			zap.Int("line_count", len(msg.Order.Items)),
			zap.Float64("total", msg.Order.Total))

		ctx.Send(a.notifyPID, &sendConfirmation{
			OrderID:  msg.Order.ID,
			FullName: msg.Order.CustomerInfo.FullName,
			Total:    msg.Order.Total,
		})

	case *actor.Started:
		a.logger.Info("Fulfillment actor started")

	case *actor.Stopping:
		a.logger.Info("Fulfillment actor stopping")
	}
}

type notificationActor struct {
	logger *zap.Logger
}

func (a *notificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *sendConfirmation:
		// No mail transport is configured yet; the confirmation is logged so
		// operators can trace it end to end.
		a.logger.Info("Order confirmation queued",
			zap.String("order_id", msg.OrderID),
			zap.String("recipient", msg.FullName),
			zap.Float64("total", msg.Total))

	case *actor.Started:
		a.logger.Info("Notification actor started")
	}
}

func NewOrderProcessor(logger *zap.Logger) (*OrderProcessor, error) {
	system := actor.NewActorSystem()

	notifyProps := actor.PropsFromProducer(func() actor.Actor {
		return &notificationActor{logger: logger.Named("notification-actor")}
	})
	notifyPID, err := system.Root.SpawnNamed(notifyProps, "notification-actor")
	if err != nil {
		return nil, err
	}

	fulfillProps := actor.PropsFromProducer(func() actor.Actor {
		return &fulfillmentActor{notifyPID: notifyPID, logger: logger.Named("fulfillment-actor")}
	})
	fulfillPID, err := system.Root.SpawnNamed(fulfillProps, "fulfillment-actor")
	if err != nil {
		return nil, err
	}

	return &OrderProcessor{system: system, fulfillPID: fulfillPID}, nil
}

// OrderPlaced fires and forgets; the HTTP response never waits on actors.
func (p *OrderProcessor) OrderPlaced(order *models.Order) {
	p.system.Root.Send(p.fulfillPID, &orderPlaced{Order: order})
}

func (p *OrderProcessor) Shutdown() {
	p.system.Shutdown()
}
