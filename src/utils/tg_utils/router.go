package tgutils

import (
	"context"
	"errors"
	"slices"

	datastructures "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/data_structures"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoRoute = errors.New("no handler for update")

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update) error
}

type UpdateHandlerFunc func(ctx context.Context, update *tgbotapi.Update) error

func (f UpdateHandlerFunc) HandleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	return f(ctx, update)
}

type CommandHandler interface {
	HandleCommand(ctx context.Context, message *tgbotapi.Message) error
}

type CommandHandlerFunc func(ctx context.Context, message *tgbotapi.Message) error

func (f CommandHandlerFunc) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	return f(ctx, message)
}

type CallbackHandler interface {
	HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error
}

type CallbackHandlerFunc func(ctx context.Context, query *tgbotapi.CallbackQuery) error

func (f CallbackHandlerFunc) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	return f(ctx, query)
}

type Middleware func(next UpdateHandler) UpdateHandler

// Chain wraps handler so that the first middleware runs first.
func Chain(handler UpdateHandler, middlewares ...Middleware) UpdateHandler {
	for _, middleware := range slices.Backward(middlewares) {
		handler = middleware(handler)
	}
	return handler
}

// Router sends commands to the handler registered under their name and callbacks
// to the handler with the longest matching data prefix.
type Router struct {
	commands  map[string]CommandHandler
	callbacks datastructures.TrieNode[CallbackHandler]
	// NotFoundHandler gets unknown commands.
	NotFoundHandler CommandHandler
	// TextHandler gets messages that are not commands.
	TextHandler CommandHandler
}

func NewRouter(commands map[string]CommandHandler) *Router {
	router := &Router{
		commands:  make(map[string]CommandHandler, len(commands)),
		callbacks: datastructures.NewTrieNode[CallbackHandler](),
	}
	for name, handler := range commands {
		router.commands[name] = handler
	}
	return router
}

func (router *Router) RegisterCallback(prefix string, handler CallbackHandler) {
	router.callbacks.Insert(prefix, handler)
}

func (router *Router) Commands() []string {
	names := make([]string, 0, len(router.commands))
	for name := range router.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Callbacks lists the registered callback data prefixes.
func (router *Router) Callbacks() []string {
	return slices.Sorted(router.callbacks.Keys())
}

func (router *Router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		return router.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		handler, ok := router.callbacks.Search(update.CallbackQuery.Data)
		if !ok {
			return ErrNoRoute
		}
		return handler.HandleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func (router *Router) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if !message.IsCommand() {
		if router.TextHandler == nil {
			return nil
		}
		return router.TextHandler.HandleCommand(ctx, message)
	}
	if handler, ok := router.commands[message.Command()]; ok {
		return handler.HandleCommand(ctx, message)
	}
	if router.NotFoundHandler == nil {
		return ErrNoRoute
	}
	return router.NotFoundHandler.HandleCommand(ctx, message)
}
