package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/service"
	"github.com/Stockline-Systems/inventory/pkg/context"
)

type ReportHandler struct {
	reports     *service.ReportService
	memberships MembershipResolver
}

func NewReportHandler(reports *service.ReportService, memberships MembershipResolver) *ReportHandler {
	return &ReportHandler{reports: reports, memberships: memberships}
}

func (h *ReportHandler) OrgSummary(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "report", "OrgSummary")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	report, err := h.reports.OrgSummary(ctx, membership.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
