package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/chrissnell/rfxweather/internal/sinks"
	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/responseformat"
	"github.com/chrissnell/rfxweather/pkg/rfx"
)

const (
	maxFrameBody  = 64 << 10
	defaultOrigin = "rest"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// PostFrame decodes one frame. The body is either raw bytes
// (Content-Type: application/octet-stream) or a JSON FrameRequest.
func (h *Handlers) PostFrame(w http.ResponseWriter, req *http.Request) {
	raw, origin, err := readFrame(w, req)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, responseformat.ErrorBody{Error: err.Error()})
		return
	}

	res, err := h.controller.service.Ingestor.Submit(req.Context(), origin, raw)
	if err != nil {
		var fe *rfx.FrameError
		if errors.As(err, &fe) {
			body := responseformat.ErrorBody{Error: err.Error(), Kind: fe.Kind.String()}
			if len(raw) >= 2 {
				body.PacketType = types.PacketTypeString(fe.PacketType)
			}
			h.writeError(w, req, http.StatusUnprocessableEntity, body)
			return
		}
		h.writeError(w, req, http.StatusServiceUnavailable, responseformat.ErrorBody{Error: err.Error()})
		return
	}

	out := types.ResultMap(res)
	out["origin"] = origin
	h.write(w, req, out)
}

// GetFamilies lists the dispatch table and whether each row can decode.
func (h *Handlers) GetFamilies(w http.ResponseWriter, req *http.Request) {
	decoder := h.controller.service.Ingestor.Decoder()

	specs := rfx.Families()
	out := make([]FamilyInfo, 0, len(specs))
	for _, s := range specs {
		info := FamilyInfo{
			PacketType: types.PacketTypeString(s.PacketType),
			Family:     s.Family.String(),
			Marked:     s.Marked,
			Calibrated: s.Calibrated,
			Supported:  decoder.Supported(s.PacketType),
		}
		for _, st := range s.Subtypes {
			info.Subtypes = append(info.Subtypes, SubtypeInfo{Code: fmt.Sprintf("0x%02X", st.Code), Model: st.Model})
		}
		for _, m := range s.Measures.List() {
			info.Measures = append(info.Measures, m.String())
		}
		out = append(out, info)
	}

	h.write(w, req, out)
}

// GetStats reports ingest counters and per-sink delivery health.
func (h *Handlers) GetStats(w http.ResponseWriter, req *http.Request) {
	resp := StatsResponse{
		Ingest: h.controller.service.Ingestor.Stats(),
		Sinks:  map[string]sinks.Health{},
	}
	if h.controller.service.Health != nil {
		resp.Sinks = h.controller.service.Health.All()
	}
	h.write(w, req, resp)
}

func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, HealthResponse{Status: "ok"})
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.writeError(w, req, http.StatusMethodNotAllowed, responseformat.ErrorBody{
		Error: fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path),
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.writeError(w, req, http.StatusNotFound, responseformat.ErrorBody{
		Error: fmt.Sprintf("no route for %s", req.URL.Path),
	})
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, nil); err != nil {
		h.controller.logger.Errorw("error writing response", "path", req.URL.Path, "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, body responseformat.ErrorBody) {
	if err := h.formatter.WriteError(w, req, status, body); err != nil {
		h.controller.logger.Errorw("error writing response", "path", req.URL.Path, "error", err)
	}
}

func readFrame(w http.ResponseWriter, req *http.Request) ([]byte, string, error) {
	body := http.MaxBytesReader(w, req.Body, maxFrameBody)
	defer body.Close()

	origin := req.URL.Query().Get("origin")

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "application/octet-stream" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, "", fmt.Errorf("reading body: %w", err)
		}
		if origin == "" {
			origin = defaultOrigin
		}
		return raw, origin, nil
	}

	var fr FrameRequest
	if err := json.NewDecoder(body).Decode(&fr); err != nil {
		return nil, "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if fr.Frame == "" {
		return nil, "", errors.New("frame is required")
	}
	raw, err := rfx.ParseHex(fr.Frame)
	if err != nil {
		return nil, "", err
	}

	if fr.Origin != "" {
		origin = fr.Origin
	}
	if origin == "" {
		origin = defaultOrigin
	}
	return raw, origin, nil
}
