package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/transport"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// TranscribeResponse is the body returned by POST /api/transcribe.
type TranscribeResponse struct {
	Text string `json:"text"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleAPIAsk processes a POST /api/ask request.
//
// @Summary     Ask a farming question
// @Description Runs one exchange: the question is answered by the language model in the requested
// @Description language, appended to the shared history and synthesized to speech. The audio is
// @Description returned inline as base64. If synthesis fails after the answer exists, the result is
// @Description returned with status 500 and its error field set.
// @Tags        ask
// @Accept      json
// @Produce     json
// @Param       request  body      message.AskRequest  true  "Question and language (code or label)"
// @Success     200  {object}  message.AskResult  "Answer with synthesized audio"
// @Failure     400  {string}  string  "Invalid body, empty question or text that is not UTF-8"
// @Failure     500  {object}  message.AskResult  "Processing error"
// @Router      /api/ask [post]
func handleAPIAsk(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	var req message.AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := svc.Ask(r.Context(), req.Query())
	switch {
	case pipeline.IsBadQuery(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil && res != nil:
		slog.Error("ask partially failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, res)
	case err != nil:
		slog.Error("ask failed", "error", err)
		http.Error(w, "ask error: "+err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// handleAPITranscribe processes a POST /api/transcribe request.
//
// @Summary     Transcribe a recorded question
// @Description Accepts raw audio bytes; the Content-Type selects the file extension handed to the
// @Description speech-to-text backend.
// @Tags        ask
// @Accept      audio/wav
// @Accept      audio/mpeg
// @Produce     json
// @Success     200  {object}  TranscribeResponse  "Recognized text"
// @Failure     400  {string}  string  "Empty or unreadable body"
// @Failure     500  {string}  string  "Transcription error"
// @Router      /api/transcribe [post]
func (t *Transport) handleAPITranscribe(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUpload))
	if err != nil {
		http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty audio body", http.StatusBadRequest)
		return
	}

	path, err := t.saveUpload(data, tts.ExtFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	text, err := svc.Transcribe(r.Context(), path)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		http.Error(w, "transcribe error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, TranscribeResponse{Text: text})
}

// handleAPIHistory processes a GET /api/history request.
//
// @Summary     List past exchanges
// @Description Returns every stored question/answer pair, most recent first.
// @Tags        history
// @Produce     json
// @Success     200  {array}   message.Exchange
// @Failure     500  {string}  string  "History store error"
// @Router      /api/history [get]
func handleAPIHistory(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	list, err := svc.History(r.Context())
	if err != nil {
		http.Error(w, "history error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []message.Exchange{}
	}
	writeJSON(w, http.StatusOK, list)
}
