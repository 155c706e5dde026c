package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Problem es la respuesta de error estándar (problem details).
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail"`
	Instance string              `json:"instance"`
	TraceID  string              `json:"traceId,omitempty"`
	Errors   []domain.FieldError `json:"errors,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// StatusFor traduce el tipo de error a código HTTP.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func titleFor(kind domain.Kind) string {
	switch kind {
	case domain.KindValidation:
		return "ValidationError"
	case domain.KindNotFound:
		return "NotFoundError"
	case domain.KindBadRequest:
		return "BadRequestError"
	default:
		return "InternalServerError"
	}
}

// NewProblem construye el problem details de un error para la petición actual.
func NewProblem(c *gin.Context, err error) Problem {
	status := StatusFor(err)
	p := Problem{
		Type:     "https://httpstatuses.io/" + http.StatusText(status),
		Title:    titleFor(domain.KindOf(err)),
		Status:   status,
		Detail:   err.Error(),
		Instance: c.Request.URL.Path,
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		p.TraceID = sc.TraceID().String()
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		p.Errors = verr.Errors
	}
	return p
}

// SendProblem escribe el error como problem details.
func SendProblem(c *gin.Context, err error) {
	p := NewProblem(c, err)
	c.Header("Content-Type", "application/problem+json")
	c.JSON(p.Status, p)
}

// ProblemMiddleware renderiza el último error adjuntado con c.Error si el handler no respondió.
func ProblemMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		log.Error("Error procesando petición",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		SendProblem(c, err)
	}
}
