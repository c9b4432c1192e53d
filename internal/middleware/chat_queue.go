package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatQueue runs the updates of one chat one after another, in the order
// they entered the middleware, while different chats run concurrently up to
// a fixed limit. Order is only defined if updates enter in arrival order, so
// the bot must call the middleware from a single worker, synchronously
// (bot.WithWorkers(1) and bot.WithNotAsyncHandlers()); the queue then does
// the parallel work.
type ChatQueue struct {
	mu     sync.Mutex
	queues map[int64][]func()
	sem    chan struct{}
	wg     sync.WaitGroup
}

func NewChatQueue(concurrency int) *ChatQueue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ChatQueue{
		queues: make(map[int64][]func()),
		sem:    make(chan struct{}, concurrency),
	}
}

// Enqueue appends fn to the queue of chatID and returns without waiting.
func (q *ChatQueue) Enqueue(chatID int64, fn func()) {
	q.mu.Lock()
	pending, running := q.queues[chatID]
	q.queues[chatID] = append(pending, fn)
	if !running {
		q.wg.Add(1)
		go q.drain(chatID)
	}
	q.mu.Unlock()
}

// drain runs the queue of chatID until it is empty. The map entry exists for
// as long as a drain goroutine owns the chat.
func (q *ChatQueue) drain(chatID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		pending := q.queues[chatID]
		if len(pending) == 0 {
			delete(q.queues, chatID)
			q.mu.Unlock()
			return
		}
		fn := pending[0]
		q.queues[chatID] = pending[1:]
		q.mu.Unlock()

		q.sem <- struct{}{}
		q.run(chatID, fn)
		<-q.sem
	}
}

func (q *ChatQueue) run(chatID int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in queued update",
				"panic", r,
				"chat_id", chatID,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Wait blocks until every queued update has been handled.
func (q *ChatQueue) Wait() {
	q.wg.Wait()
}

// Middleware hands chat updates to the queue. It must be the outermost
// middleware so the rest of the chain runs inside the queue. Updates without
// a chat run inline.
func (q *ChatQueue) Middleware() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			info := describeUpdate(update)
			if info.chatID == 0 {
				next(ctx, b, update)
				return
			}
			q.Enqueue(info.chatID, func() { next(ctx, b, update) })
		}
	}
}
