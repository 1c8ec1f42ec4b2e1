// Package handlers provides HTTP handlers for API endpoints
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"attendance-report/internal/models"
	"attendance-report/internal/services"
)

// maxUploadSize bounds a spreadsheet upload
const maxUploadSize = 20 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler serves the attendance API
type AttendanceHandler struct {
	service  services.AttendanceAPI
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service services.AttendanceAPI, logger *zap.Logger) *AttendanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AttendanceHandler{
		service:  service,
		validate: v,
		logger:   logger.With(zap.String("component", "attendance_handler")),
	}
}

// Routes mounts the attendance endpoints
func (h *AttendanceHandler) Routes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.HandleQuery)
		r.Delete("/", h.HandleClear)
		r.Post("/import", h.HandleImport)
		r.Get("/export", h.HandleExport)
		r.Get("/report", h.HandleReport)
		r.Get("/report.pdf", h.HandleReportPDF)
		r.Patch("/{id}", h.HandleUpdateSlot)
	})
	r.Put("/reasons/{id}", h.HandleSaveReason)
}

// SlotUpdateRequest edits one punch
type SlotUpdateRequest struct {
	Field string `json:"field" validate:"required,oneof=S1 S2 C1 C2 s1 s2 c1 c2"`
	Value string `json:"value" validate:"required"`
}

// ReasonRequest edits one reason
type ReasonRequest struct {
	Field string `json:"field" validate:"required,oneof=morning afternoon"`
	Text  string `json:"text" validate:"max=500"`
}

// HandleImport accepts a multipart spreadsheet upload in the "file" field
func (h *AttendanceHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, &models.ValidationError{Field: "file", Message: "multipart field \"file\" is required"})
		return
	}
	defer file.Close()

	result, err := h.service.ImportFile(r.Context(), file, header.Filename)
	if err != nil {
		if result != nil {
			// records that did save stay saved; report what failed
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, result)
			return
		}
		h.respondError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// HandleQuery lists records with ?department=&from=&to=&q=
func (h *AttendanceHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.service.Query(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// HandleUpdateSlot sets S1, S2, C1 or C2 of one record
func (h *AttendanceHandler) HandleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	var req SlotUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.UpdateSlot(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

// HandleSaveReason stores the morning or afternoon reason of one record
func (h *AttendanceHandler) HandleSaveReason(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !h.decode(w, r, &req) {
		return
	}
	changed, err := h.service.SaveReason(r.Context(), chi.URLParam(r, "id"), models.ReasonField(req.Field), req.Text)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"changed": changed})
}

// HandleClear removes every record
func (h *AttendanceHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport streams the filtered records as .xlsx
func (h *AttendanceHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), q, &buf); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// HandleReport renders the printable HTML report; ?saturday=true|false overrides the configured Saturday policy
func (h *AttendanceHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	saturday, err := parseOptionalBool(r, "saturday")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	report, err := h.service.Report(r.Context(), q, saturday)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	html, err := report.HTML()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	render.HTML(w, r, html)
}

// HandleReportPDF renders the report as a PDF
func (h *AttendanceHandler) HandleReportPDF(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	saturday, err := parseOptionalBool(r, "saturday")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	pdf, err := h.service.ReportPDF(r.Context(), q, saturday)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="attendance.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *AttendanceHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		h.respondError(w, r, &models.ValidationError{Field: "body", Message: "invalid JSON"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			h.respondError(w, r, &models.ValidationError{
				Field:   fe.Field(),
				Value:   fmt.Sprint(fe.Value()),
				Message: "failed " + fe.Tag() + " check",
			})
			return false
		}
		h.respondError(w, r, err)
		return false
	}
	return true
}

func parseQuery(r *http.Request) (services.Query, error) {
	v := r.URL.Query()
	q := services.Query{
		Department: v.Get("department"),
		Search:     v.Get("q"),
	}
	for _, p := range []struct {
		name string
		dst  *models.Date
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := strings.TrimSpace(v.Get(p.name))
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return services.Query{}, &models.ValidationError{Field: p.name, Value: raw, Message: models.ErrMalformedDate.Error()}
		}
		*p.dst = d
	}
	return q, nil
}

// parseOptionalBool returns nil when the parameter is absent
func parseOptionalBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &models.ValidationError{Field: name, Value: raw, Message: "expected true or false"}
	}
	return &b, nil
}
