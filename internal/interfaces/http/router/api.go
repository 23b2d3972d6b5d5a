package router

import (
	"github.com/erp/muhasebe/internal/infrastructure/config"
	"github.com/erp/muhasebe/internal/infrastructure/logger"
	"github.com/erp/muhasebe/internal/interfaces/http/handler"
	"github.com/erp/muhasebe/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers holds every HTTP handler the API mounts
type Handlers struct {
	System     *handler.SystemHandler
	Invoice    *handler.InvoiceHandler
	Ledger     *handler.LedgerHandler
	Report     *handler.ReportHandler
	Partner    *handler.PartnerHandler
	Pricing    *handler.PricingHandler
	Product    *handler.ProductHandler
	StockMove  *handler.StockMoveHandler
	SalesOrder *handler.SalesOrderHandler
	POS        *handler.POSHandler
	Analytics  *handler.AnalyticsHandler
	Document   *handler.DocumentHandler
	Event      *handler.EventHandler
}

// EngineConfig configures the middleware chain
type EngineConfig struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Tracing     middleware.TracingConfig
	Metrics     middleware.HTTPMetricsConfig
	Profiling   middleware.ProfilingConfig
	Idempotency middleware.IdempotencyConfig
}

// NewEngine builds the gin engine with the middleware chain and every
// /api/v1 route. Middleware order:
//
//	Recovery, RequestID, access log, security headers, CORS, body limit,
//	tracing (+ span attributes and error marking), HTTP metrics, profiling.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.ProfilingWithConfig(cfg.Profiling),
	)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	idempotencyCfg := cfg.Idempotency
	if idempotencyCfg.Logger == nil {
		idempotencyCfg.Logger = log
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(APIGroups(h, middleware.Idempotency(idempotencyCfg))...)
	r.Setup()
	return engine
}

// APIGroups builds the domain route groups. idempotent guards the two
// writes that clients retry: invoice creation and stock move execution.
func APIGroups(h Handlers, idempotent gin.HandlerFunc) []RouteRegistrar {
	var groups []RouteRegistrar

	if h.System != nil {
		groups = append(groups, NewDomainGroup("system", "").
			GET("/health", h.System.Health))
	}

	if h.Invoice != nil {
		groups = append(groups, NewDomainGroup("invoices", "/invoices").
			POST("", idempotent, h.Invoice.Create).
			GET("", h.Invoice.List).
			GET("/:id", h.Invoice.GetByID).
			POST("/:id/lines", h.Invoice.AddLine).
			POST("/:id/payments", h.Invoice.RecordPayment).
			POST("/:id/status", h.Invoice.ChangeStatus))
	}

	if h.Ledger != nil {
		groups = append(groups,
			NewDomainGroup("accounts", "/accounts").
				POST("", h.Ledger.CreateAccount).
				GET("", h.Ledger.ListAccounts),
			NewDomainGroup("ledger", "/ledger").
				POST("/entries", h.Ledger.PostEntry).
				GET("/entries", h.Ledger.ListEntries),
		)
	}

	if h.Report != nil {
		groups = append(groups, NewDomainGroup("reports", "/reports").
			GET("/balance-sheet", h.Report.BalanceSheet).
			GET("/income-statement", h.Report.IncomeStatement).
			GET("/vat-declaration", h.Report.VATDeclaration))
	}

	if h.Partner != nil {
		groups = append(groups, NewDomainGroup("partners", "/partners").
			POST("", h.Partner.Create).
			GET("", h.Partner.List).
			GET("/:id", h.Partner.GetByID).
			PUT("/:id", h.Partner.Update).
			GET("/:id/balance", h.Partner.GetBalance))
	}

	if h.Pricing != nil {
		groups = append(groups, NewDomainGroup("pricing", "/pricing").
			POST("/lines", h.Pricing.Preview))
	}

	if h.Product != nil {
		groups = append(groups,
			NewDomainGroup("products", "/products").
				POST("", h.Product.Create).
				GET("", h.Product.List).
				GET("/low-stock", h.Product.LowStock).
				GET("/:id", h.Product.GetByID).
				PUT("/:id", h.Product.Update),
			NewDomainGroup("locations", "/locations").
				POST("", h.Product.CreateLocation).
				GET("", h.Product.ListLocations),
			NewDomainGroup("inventory", "/inventory").
				GET("/dashboard", h.Product.Dashboard),
		)
	}

	if h.StockMove != nil {
		groups = append(groups, NewDomainGroup("stock-moves", "/stock-moves").
			POST("", h.StockMove.Create).
			GET("", h.StockMove.List).
			GET("/:id", h.StockMove.GetByID).
			POST("/:id/confirm", h.StockMove.Confirm).
			POST("/:id/execute", idempotent, h.StockMove.Execute).
			POST("/:id/cancel", h.StockMove.Cancel))
	}

	if h.SalesOrder != nil {
		groups = append(groups, NewDomainGroup("sales-orders", "/sales-orders").
			POST("", h.SalesOrder.Create).
			GET("", h.SalesOrder.List).
			GET("/stats/count", h.SalesOrder.CountByState).
			GET("/:id", h.SalesOrder.GetByID).
			DELETE("/:id", h.SalesOrder.Delete).
			POST("/:id/lines", h.SalesOrder.AddLine).
			DELETE("/:id/lines/:line_id", h.SalesOrder.RemoveLine).
			POST("/:id/quotation", h.SalesOrder.SendQuotation).
			POST("/:id/confirm", h.SalesOrder.Confirm).
			POST("/:id/deliver", h.SalesOrder.Deliver).
			POST("/:id/cancel", h.SalesOrder.Cancel))
	}

	if h.POS != nil {
		groups = append(groups, NewDomainGroup("pos", "/pos").
			POST("/sessions", h.POS.OpenSession).
			GET("/sessions/:id", h.POS.GetSession).
			POST("/sessions/:id/orders", h.POS.CreateOrder).
			GET("/sessions/:id/orders", h.POS.ListOrders).
			POST("/sessions/:id/close", h.POS.CloseSession))
	}

	if h.Analytics != nil {
		groups = append(groups, NewDomainGroup("analytics", "/analytics").
			POST("/forecast", h.Analytics.Forecast).
			POST("/forecast/train", h.Analytics.TrainForecast).
			GET("/forecast/alerts", h.Analytics.ForecastAlerts).
			GET("/anomalies", h.Analytics.ListFindings).
			POST("/anomalies/rule-scan", h.Analytics.RuleScan).
			POST("/anomalies/train", h.Analytics.TrainAnomalyModel).
			POST("/anomalies/model-scan", h.Analytics.ModelScan).
			GET("/anomalies/duplicates", h.Analytics.Duplicates).
			POST("/anomalies/:id/resolve", h.Analytics.ResolveFinding))
	}

	if h.Document != nil {
		groups = append(groups, NewDomainGroup("documents", "/documents").
			POST("/parse", h.Document.Parse).
			GET("/archive-url", h.Document.ArchiveURL))
	}

	if h.Event != nil {
		groups = append(groups, NewDomainGroup("events", "/events").
			GET("", h.Event.ListByAggregate))
	}

	return groups
}
