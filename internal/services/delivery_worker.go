package services

import (
	"context"
	"time"

	"github.com/agamariel/artisanmarket/internal/logger"
	"go.uber.org/zap"
)

const deliveryBatchSize = 100

// Redeliverer повторно доставляет сохранённые, но не доставленные уведомления.
type Redeliverer interface {
	RedeliverPending(ctx context.Context, minAge time.Duration, limit int) (int, error)
}

// DeliveryWorker периодически досылает уведомления подключившимся пользователям.
type DeliveryWorker struct {
	redeliverer Redeliverer
	interval    time.Duration
	batchSize   int
	logger      *zap.Logger
}

func NewDeliveryWorker(redeliverer Redeliverer, interval time.Duration, log *zap.Logger) *DeliveryWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DeliveryWorker{
		redeliverer: redeliverer,
		interval:    interval,
		batchSize:   deliveryBatchSize,
		logger:      logger.OrNop(log),
	}
}

// Start запускает воркер в отдельной горутине и останавливается по ctx.Done().
// Возвращаемый канал закрывается после остановки.
func (w *DeliveryWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(w.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		w.processBatch(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.processBatch(ctx)
			}
		}
	}()
	return done
}

// processBatch досылает пачки, пока они заполняются целиком. Ошибка, в том числе при отметке
// доставки, прерывает цикл до следующего тика.
func (w *DeliveryWorker) processBatch(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.redeliverer.RedeliverPending(ctx, w.interval, w.batchSize)
		if err != nil {
			w.logger.Error("delivery worker error", zap.Error(err))
			return
		}
		if n > 0 {
			w.logger.Info("redelivered notifications", zap.Int("count", n))
		}
		if n < w.batchSize {
			return
		}
	}
}
