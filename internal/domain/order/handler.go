package order

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careplan/careplan/internal/domain/careplan"
	"github.com/careplan/careplan/internal/platform/auth"
)

// submitResponse is the 201 body for an accepted order.
type submitResponse struct {
	OrderID   string            `json:"order_id"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	CreatedAt string            `json:"created_at"`
	Warnings  []warningResponse `json:"warnings,omitempty"`
}

type warningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	intake *IntakeService
	svc    *Service
}

func NewHandler(intake *IntakeService, svc *Service) *Handler {
	return &Handler{intake: intake, svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	writeGroup := api.Group("", auth.RequireRole("admin", "intake", "pharmacist"))
	writeGroup.POST("/orders", h.SubmitOrder)

	readGroup := api.Group("", auth.RequireRole("admin", "intake", "pharmacist", "nurse"))
	readGroup.GET("/orders/:id", h.GetOrder)
	readGroup.GET("/orders/:id/download", h.DownloadCarePlan)
	readGroup.POST("/orders/search", h.SearchOrders)
}

// SubmitOrder accepts a raw partner payload. The sending system is
// identified by the X-Order-Source header; absent, clinic_b is assumed.
func (h *Handler) SubmitOrder(c echo.Context) error {
	source := c.Request().Header.Get("X-Order-Source")
	if source == "" {
		source = "clinic_b"
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	result, err := h.intake.Submit(c.Request().Context(), source, body)
	if err != nil {
		return err
	}

	resp := submitResponse{
		OrderID:   result.Order.ID.String(),
		Status:    result.Order.Status,
		Message:   "Order received; care plan generation has been scheduled.",
		CreatedAt: result.Order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{Code: w.Code, Message: w.Message})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return err
	}

	body := map[string]interface{}{
		"id":              d.Order.ID.String(),
		"status":          d.Order.Status,
		"medication_name": d.Order.MedicationName,
		"patient": map[string]interface{}{
			"mrn":        d.Patient.MRN,
			"first_name": d.Patient.FirstName,
			"last_name":  d.Patient.LastName,
		},
		"created_at": d.Order.CreatedAt,
		"updated_at": d.Order.UpdatedAt,
	}
	switch d.Order.Status {
	case StatusCompleted:
		if d.CarePlan != nil {
			body["care_plan"] = map[string]interface{}{
				"content":        d.CarePlan.Content,
				"model":          d.CarePlan.Model,
				"prompt_version": d.CarePlan.PromptVersion,
				"generated_at":   d.CarePlan.CreatedAt,
			}
		}
	case StatusFailed:
		body["error_message"] = d.Order.ErrorMessage
		body["retry_allowed"] = true
	}
	return c.JSON(http.StatusOK, body)
}

// DownloadCarePlan serves the generated plan as a plain-text
// attachment.
func (h *Handler) DownloadCarePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	plan, err := h.svc.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		if errors.Is(err, careplan.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
		}
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="care_plan_`+id.String()+`.txt"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(plan.Content))
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) SearchOrders(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.svc.Search(c.Request().Context(), req.Query)
	if err != nil {
		return err
	}
	if results == nil {
		results = []*Summary{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}
