// Package http implements the fiber trigger surface.
package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/in"
	"jobminer/core/port/out"
	"jobminer/infra/middleware"
	"jobminer/pkg/apperr"
	"jobminer/pkg/response"
)

// ReportLister serves cycle report history.
type ReportLister interface {
	LatestReports(ctx context.Context, limit int) ([]domain.CycleReport, error)
}

// cycleTimeout bounds a fire-and-forget cycle launched from the trigger
// surface.
const cycleTimeout = 30 * time.Minute

// PipelineHandler exposes the pipeline trigger endpoints.
type PipelineHandler struct {
	trigger in.PipelineTrigger
	reader  out.ApplicationReader
	reports ReportLister
	log     zerolog.Logger
}

// NewPipelineHandler creates the handler. reader and reports may be nil when
// the backing store is not configured.
func NewPipelineHandler(trigger in.PipelineTrigger, reader out.ApplicationReader, reports ReportLister, log zerolog.Logger) *PipelineHandler {
	return &PipelineHandler{
		trigger: trigger,
		reader:  reader,
		reports: reports,
		log:     log.With().Str("component", "pipeline_handler").Logger(),
	}
}

// Register registers the pipeline routes on an authenticated router group.
func (h *PipelineHandler) Register(router fiber.Router) {
	pipeline := router.Group("/pipeline")
	pipeline.Post("/run", h.RunAll)
	pipeline.Post("/run/me", h.RunMe)

	router.Get("/applications", h.ListApplications)
	router.Get("/reports", h.ListReports)
}

// RunAll triggers a full cycle across all known users. With ?async=true the
// cycle runs in the background and the call returns immediately.
func (h *PipelineHandler) RunAll(c *fiber.Ctx) error {
	if c.Query("async") == "true" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
			defer cancel()
			if _, err := h.trigger.RunAllCycle(ctx); err != nil {
				h.log.Error().Err(err).Msg("background cycle failed to start")
			}
		}()
		return response.Accepted(c, fiber.Map{"status": "cycle started"})
	}

	report, err := h.trigger.RunAllCycle(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, report)
}

// RunMe runs the pipeline for the authenticated user only.
func (h *PipelineHandler) RunMe(c *fiber.Ctx) error {
	userEmail := middleware.UserEmail(c)
	if userEmail == "" {
		return apperr.Unauthorized("")
	}

	res := h.trigger.RunUserCycle(c.Context(), userEmail)
	if res.Failed() {
		return response.Error(c, fiber.StatusBadGateway, apperr.CodeExternalError, res.Err)
	}
	return response.OK(c, res)
}

// ListApplications returns the authenticated user's stored applications.
func (h *PipelineHandler) ListApplications(c *fiber.Ctx) error {
	userEmail := middleware.UserEmail(c)
	if userEmail == "" {
		return apperr.Unauthorized("")
	}
	if h.reader == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "application store not available")
	}

	records, err := h.reader.ListByUser(c.Context(), userEmail)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"applications": records, "count": len(records)})
}

// ListReports returns recent cycle reports.
func (h *PipelineHandler) ListReports(c *fiber.Ctx) error {
	if h.reports == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "report history not available")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	reports, err := h.reports.LatestReports(c.Context(), limit)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"reports": reports, "count": len(reports)})
}
