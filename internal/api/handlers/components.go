package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"

	"offgrid-planner/internal/api/models"
	"offgrid-planner/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ComponentHandler serves the preset catalogue.
type ComponentHandler struct {
	dir    string
	logger *zap.Logger
}

// NewComponentHandler creates a handler over the presets in dir.
func NewComponentHandler(dir string, logger *zap.Logger) *ComponentHandler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("component presets", zap.String("dir", dir))
	return &ComponentHandler{dir: dir, logger: logger}
}

// ListComponents handles GET /api/v1/components
func (h *ComponentHandler) ListComponents(c *gin.Context) {
	presets := []models.PresetInfo{}
	cat, err := config.ScanPresets(h.dir)
	if errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("component directory not found", zap.String("dir", h.dir))
		c.JSON(http.StatusOK, gin.H{"presets": presets, "count": 0})
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, "CATALOGUE_LOAD_ERROR", err.Error(), nil)
		return
	}
	for _, p := range cat.Presets {
		names := make([]string, 0, len(p.Components))
		for name := range p.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		presets = append(presets, models.PresetInfo{
			Name:        p.Name,
			File:        p.File,
			Description: p.Description,
			Components:  names,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"presets":    presets,
		"updated_at": cat.UpdatedAt,
		"count":      len(presets),
	})
}

// GetComponent handles GET /api/v1/components/:name
func (h *ComponentHandler) GetComponent(c *gin.Context) {
	cat, err := config.ScanPresets(h.dir)
	if errors.Is(err, fs.ErrNotExist) {
		abortError(c, http.StatusNotFound, "NOT_FOUND", "no preset named "+c.Param("name"), nil)
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, "CATALOGUE_LOAD_ERROR", err.Error(), nil)
		return
	}
	p, ok := cat.Find(c.Param("name"))
	if !ok {
		abortError(c, http.StatusNotFound, "NOT_FOUND", "no preset named "+c.Param("name"), nil)
		return
	}
	c.JSON(http.StatusOK, p)
}
