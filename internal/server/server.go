package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/apotek/internal/audit"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/auth"
	authdomain "github.com/smallbiznis/apotek/internal/auth/domain"
	"github.com/smallbiznis/apotek/internal/authorization"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/customer"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	"github.com/smallbiznis/apotek/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/apotek/internal/dashboard/domain"
	"github.com/smallbiznis/apotek/internal/invoice"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	"github.com/smallbiznis/apotek/internal/ledger"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	"github.com/smallbiznis/apotek/internal/observability"
	obsmiddleware "github.com/smallbiznis/apotek/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	obstracing "github.com/smallbiznis/apotek/internal/observability/tracing"
	"github.com/smallbiznis/apotek/internal/providers"
	"github.com/smallbiznis/apotek/internal/purchase"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	"github.com/smallbiznis/apotek/internal/ratelimit"
	"github.com/smallbiznis/apotek/internal/report"
	reportdomain "github.com/smallbiznis/apotek/internal/report/domain"
	"github.com/smallbiznis/apotek/internal/supplier"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	auth.Module,
	supplier.Module,
	customer.Module,
	ledger.Module,
	purchase.Module,
	providers.Module,
	invoice.Module,
	report.Module,
	dashboard.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.FrontendURL))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authsvc      authdomain.Service
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	supplierSvc  supplierdomain.Service
	customerSvc  customerdomain.Service
	medicineSvc  ledgerdomain.Service
	purchaseSvc  purchasedomain.Service
	invoiceSvc   invoicedomain.Service
	reportSvc    reportdomain.Service
	dashboardSvc dashboarddomain.Service
	loginLimiter *ratelimit.LoginLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Authsvc      authdomain.Service
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	SupplierSvc  supplierdomain.Service
	CustomerSvc  customerdomain.Service
	MedicineSvc  ledgerdomain.Service
	PurchaseSvc  purchasedomain.Service
	InvoiceSvc   invoicedomain.Service
	ReportSvc    reportdomain.Service
	DashboardSvc dashboarddomain.Service
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		authsvc:      p.Authsvc,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		supplierSvc:  p.SupplierSvc,
		customerSvc:  p.CustomerSvc,
		medicineSvc:  p.MedicineSvc,
		purchaseSvc:  p.PurchaseSvc,
		invoiceSvc:   p.InvoiceSvc,
		reportSvc:    p.ReportSvc,
		dashboardSvc: p.DashboardSvc,
		loginLimiter: p.LoginLimiter,
		obsMetrics:   p.ObsMetrics,
	}
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.registerAuthRoutes()
	s.registerPartyRoutes()
	s.registerMedicineRoutes()
	s.registerInvoiceRoutes()
	s.registerReportRoutes()
}

func (s *Server) registerAuthRoutes() {
	group := s.engine.Group("/auth")
	group.POST("/login", s.LoginRateLimit(), s.Login)
	group.GET("/me", s.AuthRequired(), s.Me)
	group.POST("/users", s.AuthRequired(), s.authorize(authorization.ObjectUser, authorization.ActionUserCreate), s.CreateUser)
}

func (s *Server) registerPartyRoutes() {
	r := s.engine
	authed := s.AuthRequired()

	r.POST("/supplier/create", authed, s.authorize(authorization.ObjectSupplier, authorization.ActionSupplierCreate), s.CreateSupplier)
	r.GET("/suppliers", authed, s.authorize(authorization.ObjectSupplier, authorization.ActionSupplierView), s.ListSuppliers)
	r.GET("/supplier/:suid", authed, s.authorize(authorization.ObjectSupplier, authorization.ActionSupplierView), s.GetSupplier)
	r.PUT("/supplier/update/:suid", authed, s.authorize(authorization.ObjectSupplier, authorization.ActionSupplierUpdate), s.UpdateSupplier)

	r.POST("/customer/create", authed, s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerCreate), s.CreateCustomer)
	r.GET("/customers", authed, s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.ListCustomers)
	r.GET("/customer/:cuid", authed, s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.GetCustomer)
	r.PUT("/customer/:cuid/update", authed, s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerUpdate), s.UpdateCustomer)
}

func (s *Server) registerMedicineRoutes() {
	r := s.engine
	authed := s.AuthRequired()

	r.POST("/medicine/create", authed, s.authorize(authorization.ObjectMedicine, authorization.ActionMedicineCreate), s.IntakeMedicines)
	r.PATCH("/medicine/:id/archive", authed, s.authorize(authorization.ObjectMedicine, authorization.ActionMedicineArchive), s.ArchiveMedicine)
	r.DELETE("/medicine/:id", authed, s.authorize(authorization.ObjectMedicine, authorization.ActionMedicineDelete), s.DeleteMedicine)
	r.GET("/medicine/:id", authed, s.authorize(authorization.ObjectMedicine, authorization.ActionMedicineView), s.GetMedicine)
	r.GET("/medicines", authed, s.authorize(authorization.ObjectMedicine, authorization.ActionMedicineView), s.ListMedicines)
	r.GET("/medicines/low-quantity", s.LowStockMedicines)
	r.GET("/medicines/near-expiry", s.NearExpiryMedicines)
}

func (s *Server) registerInvoiceRoutes() {
	r := s.engine
	authed := s.AuthRequired()

	r.POST("/invoice/create", authed, s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	r.GET("/invoices", authed, s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	r.GET("/invoice/:id", authed, s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoice)
	r.GET("/invoice/:id/pdf", authed, s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.DownloadInvoicePDF)
}

func (s *Server) registerReportRoutes() {
	r := s.engine
	authed := s.AuthRequired()

	r.GET("/purchase-report", authed, s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.PurchaseReport)
	r.GET("/sales-report", s.SalesReport)

	dash := r.Group("/dashboard")
	dash.GET("/totals", s.DashboardTotals)
	dash.GET("/monthly-sales", authed, s.authorize(authorization.ObjectDashboard, authorization.ActionDashboardView), s.MonthlySales)
	dash.GET("/purchase-summary", s.PurchaseSummary)
	dash.GET("/recent-logs", s.RecentLogs)

	r.GET("/activity-logs", authed, s.authorize(authorization.ObjectActivityLog, authorization.ActionActivityLogView), s.ListActivityLogs)
}
