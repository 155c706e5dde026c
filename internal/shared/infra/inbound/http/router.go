package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/pkg/utils"
)

// ActorHeader identifica al usuario que hace la petición; los comandos lo usan para auditoría.
const ActorHeader = "X-User"

// HealthCheck comprueba una dependencia externa (db, redis, mongo...).
type HealthCheck struct {
	Name  string
	Check func(c *gin.Context) error
}

// NewRouter monta el engine con trazas, actor, problem details y /health.
func NewRouter(serviceName string, log *zap.Logger, checks ...HealthCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(ActorMiddleware())
	r.Use(utils.ProblemMiddleware(log))

	r.GET("/health", healthHandler(checks))

	r.NoRoute(func(c *gin.Context) {
		utils.SendProblem(c, domain.NewNotFoundErrorBy("Route", "path", c.Request.URL.Path))
	})
	return r
}

// ActorMiddleware guarda el actor de la cabecera en el contexto de la petición.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := strings.TrimSpace(c.GetHeader(ActorHeader)); actor != "" {
			c.Request = c.Request.WithContext(domain.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		report := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(c); err != nil {
				status = http.StatusServiceUnavailable
				report[hc.Name] = err.Error()
				continue
			}
			report[hc.Name] = "ok"
		}
		utils.SendSuccess(c, status, report)
	}
}
