// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trace

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/go-arcade/vigia/pkg/trace"

// FiberMiddleware starts a server span per request and stores the span
// context as the request's UserContext, so service calls inherit it.
func FiberMiddleware(requestIDKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headerCarrier{c: c})
		ctx, span := otel.Tracer(tracerName).Start(ctx, c.Method()+" "+c.Route().Path,
			oteltrace.WithSpanKind(oteltrace.SpanKindServer))
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		// route is only known after matching
		span.SetName(c.Method() + " " + c.Route().Path)
		status := c.Response().StatusCode()
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Method()),
			attribute.String("http.target", c.OriginalURL()),
			attribute.Int("http.status_code", status),
		}
		if id, ok := c.Locals(requestIDKey).(string); ok && id != "" {
			attrs = append(attrs, attribute.String("http.request.id", id))
		}
		span.SetAttributes(attrs...)

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}

// headerCarrier reads request headers for the propagator.
type headerCarrier struct {
	c *fiber.Ctx
}

func (h headerCarrier) Get(key string) string { return h.c.Get(key) }

func (h headerCarrier) Set(key, value string) { h.c.Request().Header.Set(key, value) }

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, 4)
	for k := range h.c.GetReqHeaders() {
		keys = append(keys, k)
	}
	return keys
}
