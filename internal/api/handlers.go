package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkoziy/countryrates/internal/refresh"
	"github.com/mkoziy/countryrates/internal/repositories"
	"github.com/mkoziy/countryrates/internal/sources"
	"github.com/mkoziy/countryrates/internal/sources/exchangerate"
)

const (
	msgInternal     = "Internal server error"
	msgUnavailable  = "External data source unavailable"
	msgNotFound     = "Country not found"
	msgNoImage      = "Summary image not found"
	msgHealthy      = "Country Currency & Exchange API"
	msgRefreshed    = "Refresh successful"
	msgDeleted      = "Country deleted"
	sourceCountries = "Countries API"
	sourceRates     = "Exchange Rates API"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": msgHealthy})
}

func (s *Server) handleRefresh(c *gin.Context) {
	res, err := s.refresher.Refresh(c.Request.Context())
	if err != nil {
		s.refreshError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           msgRefreshed,
		"total_countries":   res.TotalCountries,
		"last_refreshed_at": res.RefreshedAt,
		"run_id":            res.RunID,
	})
}

func (s *Server) refreshError(c *gin.Context, err error) {
	var unavailable *sources.UnavailableError
	switch {
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   msgUnavailable,
			"details": fmt.Sprintf("Could not fetch data from %s", sourceLabel(unavailable.Source)),
		})
	case errors.Is(err, refresh.ErrInvalidExchangeData):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   msgUnavailable,
			"details": "Invalid response from " + sourceRates,
		})
	default:
		s.logger.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   msgInternal,
			"details": err.Error(),
		})
	}
}

func sourceLabel(source string) string {
	if source == exchangerate.SourceName {
		return sourceRates
	}
	return sourceCountries
}

func (s *Server) handleList(c *gin.Context) {
	filter := repositories.ListFilter{
		Region:   c.Query("region"),
		Currency: c.Query("currency"),
		Sort:     c.Query("sort"),
	}

	countries, err := repositories.ListCountries(c.Request.Context(), s.db, filter)
	if err != nil {
		s.internalError(c, "list countries failed", err)
		return
	}
	c.JSON(http.StatusOK, countries)
}

func (s *Server) handleGet(c *gin.Context) {
	country, err := repositories.GetCountryByName(c.Request.Context(), s.db, c.Param("name"))
	if errors.Is(err, repositories.ErrCountryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	if err != nil {
		s.internalError(c, "get country failed", err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (s *Server) handleDelete(c *gin.Context) {
	err := repositories.DeleteCountryByName(c.Request.Context(), s.db, c.Param("name"))
	if errors.Is(err, repositories.ErrCountryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	if err != nil {
		s.internalError(c, "delete country failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgDeleted})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, err := repositories.GetStatus(c.Request.Context(), s.db)
	if err != nil {
		s.internalError(c, "status failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleImage(c *gin.Context) {
	if !s.images.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNoImage})
		return
	}
	c.Header("Content-Type", "image/png")
	c.File(s.images.Path())
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
