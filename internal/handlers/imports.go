package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tphummel/server_inventory/internal/ingest"
	"github.com/tphummel/server_inventory/internal/logging"
	"github.com/tphummel/server_inventory/internal/metrics"
	"github.com/tphummel/server_inventory/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importResponse reports what an import did.
type importResponse struct {
	Source     string          `json:"source"`
	Seen       int             `json:"seen"`
	Rejected   int             `json:"rejected"`
	Duplicates int             `json:"duplicates"`
	Added      []models.Server `json:"added"`
}

// commitImport hands parsed records to the store and writes the response.
// rejected counts input the parser already dropped.
func (h *Handler) commitImport(w http.ResponseWriter, r *http.Request, source string, seen, rejected int, records []models.Server) {
	res, err := h.Store.Import(records)
	if err != nil {
		writeStoreError(w, r, err, "server", "import servers")
		return
	}
	rejected += res.Invalid
	added := res.Added
	if added == nil {
		added = []models.Server{}
	}

	metrics.RecordIngest(source, metrics.OutcomeAdded, len(added))
	metrics.RecordIngest(source, metrics.OutcomeDuplicate, res.Duplicates)
	metrics.RecordIngest(source, metrics.OutcomeRejected, rejected)
	logging.FromContext(r.Context()).Info("import committed",
		"source", source,
		"seen", seen,
		"added", len(added),
		"duplicates", res.Duplicates,
		"rejected", rejected,
	)

	writeJSON(w, http.StatusOK, importResponse{
		Source:     source,
		Seen:       seen,
		Rejected:   rejected,
		Duplicates: res.Duplicates,
		Added:      added,
	})
}

// ImportText handles POST /api/v1/import/text. The body is either plain text
// or a JSON object {"text": "..."}; one server per line.
func (h *Handler) ImportText(w http.ResponseWriter, r *http.Request) {
	var text string
	if isJSON(r) {
		var req struct {
			Text string `json:"text"`
		}
		if !decodeJSON(w, r, h.uploadLimit(), &req) {
			return
		}
		text = req.Text
	} else {
		data, ok := readBody(w, http.MaxBytesReader(w, r.Body, h.uploadLimit()))
		if !ok {
			return
		}
		text = string(data)
	}

	servers, res, err := ingest.ParseText(text)
	if errors.Is(err, ingest.ErrNoValidRecords) {
		metrics.RecordIngest(metrics.SourceText, metrics.OutcomeRejected, res.Rejected)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.commitImport(w, r, metrics.SourceText, res.Lines, res.Rejected, servers)
}

// ImportSpreadsheet handles POST /api/v1/import/spreadsheet. The file is sent
// either as multipart form field "file" or as the raw body; for a raw body
// the format comes from the filename query parameter or the Content-Type.
func (h *Handler) ImportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit())

	var (
		filename string
		data     []byte
		ok       bool
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, `multipart form must contain a "file" field`)
			return
		}
		defer file.Close()
		filename = header.Filename
		if data, ok = readBody(w, file); !ok {
			return
		}
	} else {
		filename = rawFilename(r)
		if data, ok = readBody(w, r.Body); !ok {
			return
		}
	}

	servers, res, err := ingest.IngestSpreadsheet(filename, bytes.NewReader(data))
	var mhe *ingest.MissingHeadersError
	switch {
	case errors.As(err, &mhe), errors.Is(err, ingest.ErrEmptySpreadsheet):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported file type: use .xlsx or .csv")
		return
	case err != nil:
		logging.FromContext(r.Context()).Warn("spreadsheet read failed", "filename", filename, "error", err)
		writeError(w, http.StatusBadRequest, "could not read spreadsheet")
		return
	}
	h.commitImport(w, r, metrics.SourceSpreadsheet, res.Rows, res.Skipped, servers)
}

// rawFilename names a raw upload so the reader can be chosen by extension.
func rawFilename(r *http.Request) string {
	if name := r.URL.Query().Get("filename"); name != "" {
		return filepath.Base(name)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case xlsxContentType:
		return "upload.xlsx"
	case "text/csv", "application/csv":
		return "upload.csv"
	}
	return ""
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// Template handles GET /api/v1/import/template and returns the XLSX import
// template as an attachment.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := ingest.WriteTemplate(&buf); err != nil {
		logging.FromContext(r.Context()).Error("template generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build template")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": ingest.TemplateFilename,
	}))
	w.Write(buf.Bytes())
}

// AssistantImport handles POST /api/v1/assistant/import. The model extracts
// records from {"text": "..."} and they are imported like any other source.
func (h *Handler) AssistantImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, h.uploadLimit(), &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	servers, err := h.assist().ExtractServers(r.Context(), req.Text)
	if err != nil {
		writeAssistantError(w, r, err, "AI extraction failed")
		return
	}
	if len(servers) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no valid IPv4 server data found")
		return
	}
	h.commitImport(w, r, metrics.SourceAssistant, len(servers), 0, servers)
}
