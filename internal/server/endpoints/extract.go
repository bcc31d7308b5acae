package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/api"
	"github.com/planora/planora/internal/pipeline"
	"github.com/planora/planora/internal/plan"
	"github.com/planora/planora/internal/svcctx"
	"github.com/planora/planora/internal/textextract"
)

// maxUploadBytes caps uploaded documents at 50 MB.
const maxUploadBytes = 50 << 20

// ExtractResponse is the non-streaming success payload.
type ExtractResponse struct {
	Plan   *plan.Plan `json:"plan"`
	Source string     `json:"source"`
}

// ExtractEndpoint handles POST /api/extract with a multipart document
// upload. With stream=true the response is NDJSON progress lines.
type ExtractEndpoint struct {
	// MaxUploadBytes overrides the upload cap (tests). Zero means the
	// default 50 MB.
	MaxUploadBytes int64
}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract a structured tour plan from a document
//	@Description	Upload a DOCX or PDF tour document and receive a structured plan
//	@Tags			extract
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Tour document (.docx or .pdf, max 50 MB)"
//	@Param			stream	formData	string	false	"Set to true for NDJSON progress streaming"
//	@Param			name	formData	string	false	"Caller name used to personalize progress labels"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := e.MaxUploadBytes
	if limit <= 0 {
		limit = maxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file exceeds the %d MB limit", limit>>20))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file attached")
		return
	}
	defer file.Close()

	format, err := textextract.DetectFormat(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q: only .docx and .pdf are accepted", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction pipeline not initialized")
		return
	}

	doc := pipeline.Document{
		Name:   header.Filename,
		Format: format,
		Data:   data,
		Caller: r.FormValue("name"),
	}

	if r.FormValue("stream") == "true" {
		e.streamExtraction(w, r, orch, doc)
		return
	}

	result, err := orch.Run(r.Context(), doc, pipeline.NewBufferSink())
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyDocument) || errors.Is(err, textextract.ErrUnextractable) {
			writeError(w, http.StatusUnprocessableEntity, "could not extract any text from the document")
			return
		}
		writeError(w, http.StatusInternalServerError, "unexpected error processing the document")
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{Plan: result.Plan, Source: result.Source})
}

// streamExtraction runs the pipeline with an NDJSON sink. Terminal
// error events are already part of the stream, so errors from Run are
// not mapped to HTTP statuses here — headers are long gone.
func (e *ExtractEndpoint) streamExtraction(w http.ResponseWriter, r *http.Request, orch *pipeline.Orchestrator, doc pipeline.Document) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	sink := newNDJSONSink(w, flusher)
	defer sink.Close()

	if _, err := orch.Run(r.Context(), doc, sink); err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("streaming extraction ended with error", "filename", doc.Name, "error", err)
		}
	}
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		stream     bool
		callerName string
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract a structured tour plan from a document",
		Long: `Upload a DOCX or PDF tour document to the running server and print
the extracted plan.

Examples:
  planora api extract tour.docx
  planora api extract tour.pdf --stream
  planora api extract tour.docx --name Ana`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			if _, err := os.Stat(filePath); err != nil {
				return fmt.Errorf("cannot read %s: %w", filePath, err)
			}

			client := api.NewClient(getServerURL())
			fields := map[string]string{}
			if callerName != "" {
				fields["name"] = callerName
			}

			if stream {
				fields["stream"] = "true"
				return client.UploadStream(cmd.Context(), "/api/extract", filePath, fields, func(line []byte) error {
					fmt.Println(string(line))
					return nil
				})
			}

			var resp ExtractResponse
			if err := client.Upload(cmd.Context(), "/api/extract", filePath, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "Print NDJSON progress lines as they arrive")
	cmd.Flags().StringVar(&callerName, "name", "", "Name used to personalize progress labels")
	return cmd
}
