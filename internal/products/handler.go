package products

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// dateLayouts are accepted for from_date/to_date; values without a zone are UTC.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type productInput struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description" binding:"required"`
}

type pricesQuery struct {
	From string `form:"from_date" binding:"required"`
	To   string `form:"to_date" binding:"required"`
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input productInput
	if !h.bindProduct(c, &input) {
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), strings.TrimSpace(input.Name), strings.TrimSpace(*input.Description))
	if err != nil {
		h.writeError(c, "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var input productInput
	if !h.bindProduct(c, &input) {
		return
	}
	p := Product{ID: id, Name: strings.TrimSpace(input.Name), Description: strings.TrimSpace(*input.Description)}
	if err := h.svc.UpdateProduct(c.Request.Context(), p); err != nil {
		h.writeError(c, "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) GetOffers(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	offers, err := h.svc.CurrentOffers(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "GetOffers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": views(offers)})
}

func (h *Handler) GetOffersAll(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	offers, err := h.svc.AllOffers(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "GetOffersAll", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": views(offers)})
}

func (h *Handler) GetPrices(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var q pricesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_date and to_date are required"})
		return
	}
	from, err := parseDate(q.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date"})
		return
	}
	to, err := parseDate(q.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date"})
		return
	}

	trend, err := h.svc.Prices(c.Request.Context(), id, from, to)
	if err != nil {
		h.writeError(c, "GetPrices", err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (h *Handler) bindProduct(c *gin.Context, input *productInput) bool {
	if err := c.ShouldBindJSON(input); err != nil || strings.TrimSpace(input.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: name and description are required"})
		return false
	}
	return true
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProviderRegistration):
		c.JSON(http.StatusBadGateway, gin.H{"error": "offers service rejected the product"})
	default:
		h.log.Error().Err(err).Str("op", op).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server got itself in trouble"})
	}
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id should be int"})
		return 0, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func views(offers []Offer) []OfferView {
	out := make([]OfferView, len(offers))
	for i, o := range offers {
		out[i] = o.View()
	}
	return out
}
