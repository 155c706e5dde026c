package cqrs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// SlowRequestThreshold es el umbral a partir del cual se emite el aviso de rendimiento.
const SlowRequestThreshold = 3 * time.Second

// LoggingBehavior registra inicio y fin de cada petición y avisa si tarda más de
// SlowRequestThreshold. Nunca se traga el error de las etapas internas.
func LoggingBehavior(log *zap.Logger, now func() time.Time, tracer trace.Tracer) Behavior {
	return func(ctx context.Context, req Request, next Next) (any, error) {
		name := RequestName(req)

		ctx, span := tracer.Start(ctx, "cqrs."+name,
			trace.WithAttributes(attribute.String("cqrs.intent", string(req.Intent()))),
		)
		defer span.End()

		log.Info("[START] Handling request",
			zap.String("request", name),
			zap.Any("payload", loggablePayload(req)),
		)

		start := now()
		res, err := next(ctx)
		elapsed := now().Sub(start)

		if elapsed > SlowRequestThreshold {
			log.Warn("🐢 [PERFORMANCE] Slow request",
				zap.String("request", name),
				zap.String("took", fmt.Sprintf("%.2f seconds", elapsed.Seconds())),
			)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Info("[END] Handled request",
				zap.String("request", name),
				zap.String("response", "Failure["+string(domain.KindOf(err))+"]"),
				zap.Error(err),
			)
			return res, err
		}

		log.Info("[END] Handled request",
			zap.String("request", name),
			zap.String("response", fmt.Sprintf("%T", res)),
		)
		return res, nil
	}
}

func loggablePayload(req Request) any {
	if r, ok := req.(Redactor); ok {
		return r.Redacted()
	}
	return req
}
