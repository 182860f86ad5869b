package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	reportdomain "github.com/smallbiznis/apotek/internal/report/domain"
)

func (s *Server) PurchaseReport(c *gin.Context) {
	var query reportdomain.PurchaseReportRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.PurchaseReport(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SalesReport(c *gin.Context) {
	var query reportdomain.SalesReportRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.SalesReport(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DashboardTotals(c *gin.Context) {
	resp, err := s.dashboardSvc.Totals(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MonthlySales(c *gin.Context) {
	resp, err := s.dashboardSvc.MonthlySales(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PurchaseSummary(c *gin.Context) {
	resp, err := s.dashboardSvc.PurchaseSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecentLogs(c *gin.Context) {
	resp, err := s.dashboardSvc.RecentLogs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListActivityLogs(c *gin.Context) {
	var query auditdomain.ListActivityLogRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.ActivityLogs, "page_info": resp.PageInfo})
}
