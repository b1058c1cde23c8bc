// Package handlers assembles the application's use cases into command and query buses.
package handlers

import (
	"log/slog"

	"venuebook/internal/app/commands"
	availabilityapp "venuebook/internal/app/handlers/availability"
	bookingapp "venuebook/internal/app/handlers/booking"
	notificationapp "venuebook/internal/app/handlers/notifications"
	ownerapp "venuebook/internal/app/handlers/owner"
	paymentapp "venuebook/internal/app/handlers/payments"
	reviewapp "venuebook/internal/app/handlers/reviews"
	venueapp "venuebook/internal/app/handlers/venues"
	"venuebook/internal/app/middleware"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/policies"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
)

type Dependencies struct {
	UoWFactory  uow.UoWFactory
	Idempotency middleware.IdempotencyStore
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger

	// Notifier delivers intents after commit. Nil delivers them in-process.
	Notifier policies.Notifier
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus

	// RawCommands and RawQueries are the unwrapped buses; they expose the registered keys.
	RawCommands *commands.InMemoryBus
	RawQueries  *queries.InMemoryBus
}

// Build registers every use case and wraps the buses with the middleware chain.
func Build(deps Dependencies) Buses {
	if deps.Encoder == nil {
		deps.Encoder = outbox.JSONEventEncoder{}
	}
	commandBus := commands.NewInMemoryBus()
	RegisterCommands(commandBus, deps)
	queryBus := queries.NewInMemoryBus()
	RegisterQueries(queryBus, deps)

	notifier := deps.Notifier
	var direct *notificationapp.Direct
	if notifier == nil {
		direct = &notificationapp.Direct{}
		notifier = direct
	}
	chain := []middleware.CommandMiddleware{
		middleware.Logging(deps.Logger),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Authorization(middleware.RoleAuthorizer{}),
	}
	if deps.Idempotency != nil {
		chain = append(chain, middleware.Idempotency(deps.Idempotency, nil))
	}
	chain = append(chain,
		middleware.Notifications(notifier, deps.Logger),
		middleware.Transaction(deps.UoWFactory, nil),
	)
	wrapped := middleware.ChainCommands(commandBus, chain...)
	if direct != nil {
		direct.Bus = wrapped
	}

	return Buses{
		Commands: wrapped,
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryValidation(middleware.SelfValidator{}),
			middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		),
		RawCommands: commandBus,
		RawQueries:  queryBus,
	}
}

func RegisterCommands(bus *commands.InMemoryBus, deps Dependencies) {
	f, enc, log := deps.UoWFactory, deps.Encoder, deps.Logger

	commands.RegisterHandler(bus, &venueapp.CreateVenueHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &venueapp.UpdateVenueHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &venueapp.DeactivateVenueHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &venueapp.ModerateVenueHandler{UoWFactory: f, Encoder: enc, Logger: log})

	commands.RegisterHandler(bus, &availabilityapp.ToggleSlotHandler{UoWFactory: f, Logger: log})
	commands.RegisterHandler(bus, &availabilityapp.ReplaceCalendarHandler{UoWFactory: f, Logger: log})

	commands.RegisterHandler(bus, &bookingapp.CreateBookingHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &bookingapp.TransitionBookingHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &bookingapp.SweepCompletedHandler{UoWFactory: f, Encoder: enc, Logger: log})

	commands.RegisterHandler(bus, &paymentapp.UpdatePaymentStatusHandler{UoWFactory: f, Encoder: enc, Logger: log})
	commands.RegisterHandler(bus, &reviewapp.SubmitReviewHandler{UoWFactory: f, Encoder: enc, Logger: log})

	commands.RegisterHandler(bus, &notificationapp.DeliverNotificationHandler{UoWFactory: f, Logger: log})
	commands.RegisterHandler(bus, &notificationapp.MarkNotificationReadHandler{UoWFactory: f})
	commands.RegisterHandler(bus, &notificationapp.MarkAllNotificationsReadHandler{UoWFactory: f})

	commands.RegisterHandler(bus, &ownerapp.DashboardHandler{UoWFactory: f, Encoder: enc, Logger: log})
}

func RegisterQueries(bus *queries.InMemoryBus, deps Dependencies) {
	f := deps.UoWFactory

	queries.RegisterHandler(bus, &venueapp.GetVenueHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &venueapp.ListVenuesHandler{UoWFactory: f, Logger: deps.Logger})
	queries.RegisterHandler(bus, &availabilityapp.GetCalendarHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &bookingapp.GetBookingHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &bookingapp.ListCustomerBookingsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &bookingapp.ListOwnerBookingsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &paymentapp.ListOwnerPaymentsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &reviewapp.ListVenueReviewsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &reviewapp.CheckReviewHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &reviewapp.ListOwnerReviewsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &notificationapp.ListNotificationsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, &ownerapp.AnalyticsHandler{UoWFactory: f})
}
