package mcu

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mcu/mcu/internal/domain/framingham"
	"github.com/mcu/mcu/internal/domain/report"
	"github.com/mcu/mcu/internal/platform/auth"
	"github.com/mcu/mcu/internal/platform/search"
	"github.com/mcu/mcu/pkg/pagination"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc     *Service
	baseURL string
}

// NewHandler serves records under api. baseURL prefixes the check-in links
// encoded in participant QR codes.
func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleRegistration)
	clinical := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)
	front := auth.RequireRole(auth.RoleRegistration, auth.RoleNurse)

	read := api.Group("", staff)
	read.GET("/packages", h.ListPackages)
	read.GET("/stations", h.ListStations)
	read.GET("/mcu-records", h.ListRecords)
	read.GET("/mcu-records/:id", h.GetRecord)
	read.GET("/mcu-records/:id/report-plan", h.GetReportPlan)
	read.GET("/mcu-records/:id/qrcode", h.GetQRCode)
	read.GET("/mcu-records/:id/checkins", h.ListCheckins)
	read.GET("/mcu-records/import/template", h.GetImportTemplate)

	registration := api.Group("", front)
	registration.POST("/mcu-records", h.CreateRecord)
	registration.POST("/mcu-records/import", h.ImportRecords)
	registration.POST("/mcu-records/:id/checkins", h.CheckIn)

	results := api.Group("", clinical)
	results.PUT("/mcu-records/:id", h.UpdateRecord)
	results.POST("/mcu-records/:id/risk", h.ComputeRisk)
	results.POST("/risk/preview", h.PreviewRisk)
	results.GET("/mcu-records/export", h.ExportRecords)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/mcu-records/:id", h.DeleteRecord)
}

// httpError maps service errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "mcu record not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Catalog --

func (h *Handler) ListPackages(c echo.Context) error {
	return c.JSON(http.StatusOK, report.Catalog())
}

func (h *Handler) ListStations(c echo.Context) error {
	return c.JSON(http.StatusOK, StationsFor(c.QueryParams()["package"]))
}

// -- Records --

func (h *Handler) CreateRecord(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = uuid.Nil
	if err := h.svc.CreateRecord(c.Request().Context(), &rec); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchRecords(c.Request().Context(), search.ParamsFromContext(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset).
		WithLinks(c.Request().URL.Path, c.QueryParams())
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id
	if err := h.svc.UpdateRecord(c.Request().Context(), &rec); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Risk --

type riskResponse struct {
	Record  *Record     `json:"record"`
	Outcome RiskOutcome `json:"outcome"`
}

func (h *Handler) ComputeRisk(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, out, err := h.svc.ComputeRisk(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, riskResponse{Record: rec, Outcome: out})
}

func (h *Handler) PreviewRisk(c echo.Context) error {
	var in framingham.Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.PreviewRisk(in))
}

// -- Report --

func (h *Handler) GetReportPlan(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	plan, err := h.svc.ReportPlan(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plan)
}

// -- Check-in --

type checkinRequest struct {
	Station string `json:"station"`
}

func (h *Handler) CheckIn(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req checkinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	operator := auth.UserNameFromContext(c.Request().Context())
	if operator == "" {
		operator = auth.UserIDFromContext(c.Request().Context())
	}
	ci, err := h.svc.CheckIn(c.Request().Context(), id, req.Station, operator)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, ci)
}

func (h *Handler) ListCheckins(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListCheckins(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetQRCode(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size > 1024 {
		size = 1024
	}
	png, err := h.svc.CheckinQRCode(c.Request().Context(), id, h.baseURL, size)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// -- Spreadsheets --

func (h *Handler) ExportRecords(c echo.Context) error {
	data, err := h.svc.ExportRecords(c.Request().Context(), search.ParamsFromContext(c))
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="hasil-mcu.xlsx"`)
	return c.Blob(http.StatusOK, mimeXLSX, data)
}

func (h *Handler) GetImportTemplate(c echo.Context) error {
	data, err := ImportTemplate()
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="template-peserta.xlsx"`)
	return c.Blob(http.StatusOK, mimeXLSX, data)
}

// ImportRecords accepts the workbook either as a multipart "file" field or as
// the raw request body.
func (h *Handler) ImportRecords(c echo.Context) error {
	body := c.Request().Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		defer f.Close()
		body = f
	}
	summary, err := h.svc.ImportRecords(c.Request().Context(), body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}
