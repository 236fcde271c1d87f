package handlers

import (
	"net/http"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/api/models"

	"github.com/gin-gonic/gin"
)

// ComputeEPC handles POST /api/v1/epc
func ComputeEPC(c *gin.Context) {
	var req models.EPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	f := req.Financials
	if err := f.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_FINANCIALS", err.Error(), nil)
		return
	}

	resp := models.EPCResponse{CRF: f.CRF(), Assets: make([]models.EPCResult, 0, len(req.Assets))}
	for _, a := range req.Assets {
		epc := f.EPC(a.Capex, a.Opex, a.Lifetime)
		r := models.EPCResult{
			Name:        a.Name,
			Investments: annuity.NumberOfInvestments(a.Lifetime, f.ProjectLifetime),
			EPC:         epc,
			PeriodCost:  epc,
		}
		if req.Days > 0 {
			r.PeriodCost = epc * annuity.PeriodShare(req.Days)
		}
		resp.Total += r.PeriodCost
		resp.Assets = append(resp.Assets, r)
	}
	c.JSON(http.StatusOK, resp)
}
