// Package server assembles the gin engine serving the catalog and offer API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valeevte/OfferMonitor/internal/auth"
	"github.com/valeevte/OfferMonitor/internal/products"
)

const (
	PrefixV1        = "/api/v1"
	requestIDHeader = "X-Request-ID"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Info struct {
	Name    string
	Version string
}

// NewRouter wires the product routes; create/update/delete require a bearer token.
func NewRouter(h *products.Handler, tokens *auth.Tokens, store Pinger, info Info, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": info.Name, "version": info.Version})
	})
	r.GET("/status", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("status check failed")
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	api := r.Group(PrefixV1)
	{
		protected := auth.Middleware(tokens, log)

		api.POST("/products", protected, h.CreateProduct)
		api.GET("/products/:id", h.GetProduct)
		api.PUT("/products/:id", protected, h.UpdateProduct)
		api.DELETE("/products/:id", protected, h.DeleteProduct)

		api.GET("/products/:id/offers", h.GetOffers)
		api.GET("/products/:id/offers_all", h.GetOffersAll)
		api.GET("/products/:id/prices", h.GetPrices)
	}
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestID(c.GetHeader(requestIDHeader))
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// requestID keeps a client-supplied id only when it is a UUID.
func requestID(header string) string {
	if id, err := uuid.Parse(header); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
