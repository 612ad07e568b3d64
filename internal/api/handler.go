package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/lookthrough/internal/domain/dto"
	"github.com/guttosm/lookthrough/internal/domain/models"
	"github.com/guttosm/lookthrough/internal/marketdata"
	"github.com/guttosm/lookthrough/internal/middleware"
	"github.com/guttosm/lookthrough/internal/service"
)

const defaultCount = 10

// Handler provides the HTTP handlers for market data and exposure endpoints.
//
// Responsibilities:
//   - Validate query parameters and request bodies
//   - Delegate to the market and exposure services
//   - Map service errors onto HTTP status codes
type Handler struct {
	market   service.MarketService
	exposure service.ExposureService
}

// NewHandler constructs a Handler over the given services.
func NewHandler(market service.MarketService, exposure service.ExposureService) *Handler {
	return &Handler{market: market, exposure: exposure}
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, marketdata.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoRepository):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, marketdata.ErrAllEndpointsFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, message string, err error) {
	middleware.AbortWithError(c, statusFor(err), message, err)
}

func parseCount(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return defaultCount, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		middleware.AbortWithError(c, http.StatusBadRequest, "count must be a positive integer", err)
		return 0, false
	}
	return n, true
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetQuote godoc
// @Summary      Latest quote
// @Description  Returns the latest price snapshot for a ticker
// @Tags         market
// @Produce      json
// @Param        ticker  query     string  true  "Ticker" example(AAPL)
// @Success      200     {object}  models.Quote
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "No data"
// @Failure      502     {object}  dto.ErrorResponse  "Upstream unavailable"
// @Router       /api/v1/quote [get]
func (h *Handler) GetQuote(c *gin.Context) {
	ticker := strings.TrimSpace(c.Query("ticker"))
	if ticker == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "ticker is required", nil)
		return
	}
	q, err := h.market.Quote(c.Request.Context(), ticker)
	if err != nil {
		fail(c, "failed to fetch quote", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetQuotes godoc
// @Summary      Quotes for several tickers
// @Description  Fetches all tickers concurrently. Tickers that fail are listed in "missing"; the call itself succeeds.
// @Tags         market
// @Produce      json
// @Param        tickers  query     string  true  "Comma-separated tickers" example(AAPL,MSFT,XIU.TO)
// @Success      200      {object}  dto.QuotesResponse
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/quotes [get]
func (h *Handler) GetQuotes(c *gin.Context) {
	tickers := splitList(c.Query("tickers"))
	if len(tickers) == 0 {
		middleware.AbortWithError(c, http.StatusBadRequest, "tickers is required", nil)
		return
	}
	if len(tickers) > service.MaxQuotesPerRequest {
		middleware.AbortWithError(c, http.StatusBadRequest,
			"too many tickers, at most "+strconv.Itoa(service.MaxQuotesPerRequest)+" per request", nil)
		return
	}
	quotes, missing := h.market.Quotes(c.Request.Context(), tickers)
	c.JSON(http.StatusOK, dto.QuotesResponse{Quotes: quotes, Missing: missing})
}

// GetHistory godoc
// @Summary      Price history
// @Tags         market
// @Produce      json
// @Param        ticker    query     string  true   "Ticker" example(SPY)
// @Param        range     query     string  false  "Range (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max)" example(1mo)
// @Param        interval  query     string  false  "Interval (1m..3mo)" example(1d)
// @Success      200       {object}  models.PriceHistory
// @Failure      400       {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404       {object}  dto.ErrorResponse  "No data"
// @Failure      502       {object}  dto.ErrorResponse  "Upstream unavailable"
// @Router       /api/v1/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ticker := strings.TrimSpace(c.Query("ticker"))
	if ticker == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "ticker is required", nil)
		return
	}
	hist, err := h.market.History(c.Request.Context(), ticker, c.Query("range"), c.Query("interval"))
	if err != nil {
		fail(c, "failed to fetch history", err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// Search godoc
// @Summary      Instrument search
// @Tags         market
// @Produce      json
// @Param        q      query     string  true   "Free-text query" example(apple)
// @Param        count  query     int     false  "Maximum results (1-50)" example(10)
// @Success      200    {object}  dto.SearchResponse
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      502    {object}  dto.ErrorResponse  "Upstream unavailable"
// @Router       /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	count, ok := parseCount(c)
	if !ok {
		return
	}
	hits, err := h.market.Search(c.Request.Context(), q, count)
	if err != nil {
		fail(c, "search failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.SearchResponse{Query: q, Results: hits})
}

// News godoc
// @Summary      Headlines
// @Tags         market
// @Produce      json
// @Param        q      query     string  true   "Ticker or free-text query" example(AAPL)
// @Param        count  query     int     false  "Maximum headlines (1-50)" example(5)
// @Success      200    {object}  dto.NewsResponse
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      502    {object}  dto.ErrorResponse  "Upstream unavailable"
// @Router       /api/v1/news [get]
func (h *Handler) News(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	count, ok := parseCount(c)
	if !ok {
		return
	}
	news, err := h.market.News(c.Request.Context(), q, count)
	if err != nil {
		fail(c, "news lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewsResponse{Query: q, News: news})
}

// GetFundamentals godoc
// @Summary      Fundamentals modules
// @Description  Returns the requested upstream fundamentals modules as raw JSON objects
// @Tags         market
// @Produce      json
// @Param        ticker   query     string  true   "Ticker" example(SPY)
// @Param        modules  query     string  false  "Comma-separated module names" example(topHoldings,fundProfile)
// @Success      200      {object}  models.QuoteSummary
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404      {object}  dto.ErrorResponse  "No data"
// @Failure      502      {object}  dto.ErrorResponse  "Upstream unavailable"
// @Router       /api/v1/fundamentals [get]
func (h *Handler) GetFundamentals(c *gin.Context) {
	ticker := strings.TrimSpace(c.Query("ticker"))
	if ticker == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "ticker is required", nil)
		return
	}
	s, err := h.market.Fundamentals(c.Request.Context(), ticker, splitList(c.Query("modules")))
	if err != nil {
		fail(c, "failed to fetch fundamentals", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// PostExposure godoc
// @Summary      Effective sector exposure
// @Description  Looks through fund holdings into their sector breakdowns. With live=true, breakdowns are fetched upstream first and fall back to the reference tables.
// @Tags         exposure
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ExposureRequest  true  "Holdings"
// @Success      200   {object}  dto.ExposureResponse
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/exposure [post]
func (h *Handler) PostExposure(c *gin.Context) {
	var req dto.ExposureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	report, err := h.exposure.Compute(c.Request.Context(), req.Holdings, req.Live)
	if err != nil {
		fail(c, "failed to compute exposure", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExposureResponse(report))
}

// GetUserExposure godoc
// @Summary      Effective sector exposure of a stored portfolio
// @Tags         exposure
// @Produce      json
// @Param        userID  path      string  true   "User id"
// @Param        live    query     bool    false  "Fetch breakdowns upstream" example(false)
// @Param        types   query     string  false  "Comma-separated holding types to include (stock,etf)" example(etf)
// @Success      200     {object}  dto.ExposureResponse
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "No holdings"
// @Failure      503     {object}  dto.ErrorResponse  "Database not configured"
// @Router       /api/v1/users/{userID}/exposure [get]
func (h *Handler) GetUserExposure(c *gin.Context) {
	live := false
	if raw := c.Query("live"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "live must be a boolean", err)
			return
		}
		live = v
	}
	var types []models.HoldingType
	for _, t := range splitList(c.Query("types")) {
		ht := models.HoldingType(strings.ToLower(t))
		if !ht.Valid() {
			middleware.AbortWithError(c, http.StatusBadRequest, "types must be stock or etf", nil)
			return
		}
		types = append(types, ht)
	}
	report, err := h.exposure.ForUser(c.Request.Context(), c.Param("userID"), live, types...)
	if err != nil {
		fail(c, "failed to compute exposure", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExposureResponse(report))
}
