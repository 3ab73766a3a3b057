package http

import (
	"bytes"
	"errors"
	"net/http"

	applog "shoplist/internal/log"
	"shoplist/internal/transfer"
)

// handleExport streams the list as a downloadable JSON or CSV file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := transfer.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := transfer.ParseFormat(v)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		format = f
	}

	payload := s.store.ExportData()
	var buf bytes.Buffer
	if err := transfer.Write(&buf, format, payload); err != nil {
		ctx := r.Context()
		applog.FromContext(ctx).ErrorContext(ctx, "Export failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}

	filename := transfer.Filename(format, payload.ExportDate)
	w.Header().Set("Content-Type", format.ContentType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport replaces the list with an uploaded export document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, transfer.MaxImportBytes)
	payload, err := transfer.DecodeImport(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			ErrorResponse(http.StatusRequestEntityTooLarge, "import file too large").Write(w)
		case errors.Is(err, transfer.ErrInvalidImport):
			BadRequestError("Invalid file format").Write(w)
		default:
			BadRequestError(err.Error()).Write(w)
		}
		return
	}

	if !s.store.ImportData(payload) {
		BadRequestError("Invalid file format").Write(w)
		return
	}

	NewJSONResponse().Payload(map[string]int{
		"items":      len(payload.Items),
		"categories": len(s.store.Categories()),
	}).Write(w)
}
