package http

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/session"
	"github.com/nadzzz/krishisahay/internal/transport"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// emptyQueryWarning is shown when the question box is empty on submit.
const emptyQueryWarning = "Please enter or upload a question."

// invalidTextError is shown when the submitted question is not UTF-8.
const invalidTextError = "The question contains characters that could not be read. Please retype it."

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// page is the data rendered by the index template.
type page struct {
	Languages  []message.Language
	Selected   string
	QueryText  string
	Recognized string
	Warning    string
	Error      string
	Result     *message.AskResult
	HasAudio   bool
	History    []message.Exchange
}

// render writes the form for session id with the given status code.
func (t *Transport) render(w http.ResponseWriter, r *http.Request, svc transport.Service, id string, status int, p page) {
	st := t.sessions.Get(id)
	p.Languages = message.Languages
	p.Selected = st.Language.Code
	p.QueryText = st.QueryText
	p.Recognized = st.Recognized
	p.Result = st.LastResult
	p.HasAudio = st.LastResult != nil && st.LastResult.AudioPath != ""

	list, err := svc.History(r.Context())
	if err != nil {
		slog.Error("loading history", "error", err)
		if p.Error == "" {
			p.Error = "Could not load history: " + err.Error()
		}
	}
	p.History = list

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, p); err != nil {
		slog.Error("rendering form", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (t *Transport) handleIndex(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	id := t.sessions.Resolve(w, r)
	t.render(w, r, svc, id, http.StatusOK, page{})
}

// handleUpload transcribes an uploaded recording into the session's
// question box.
func (t *Transport) handleUpload(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	id := t.sessions.Resolve(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if lang := r.FormValue("language"); lang != "" {
		t.sessions.Update(id, func(s *session.State) { s.Language = message.Resolve(lang) })
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		t.render(w, r, svc, id, http.StatusBadRequest, page{Error: "No audio file received: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.render(w, r, svc, id, http.StatusBadRequest, page{Error: "Reading upload: " + err.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = tts.ExtFromContentType(header.Header.Get("Content-Type"))
	}
	path, err := t.saveUpload(data, ext)
	if err != nil {
		slog.Error("saving upload", "error", err)
		t.render(w, r, svc, id, http.StatusInternalServerError, page{Error: err.Error()})
		return
	}

	text, err := svc.Transcribe(r.Context(), path)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		t.render(w, r, svc, id, http.StatusInternalServerError, page{Error: "Transcription failed: " + err.Error()})
		return
	}

	t.sessions.Update(id, func(s *session.State) {
		s.QueryText = text
		s.Recognized = text
	})
	t.render(w, r, svc, id, http.StatusOK, page{})
}

// handleAsk runs one exchange for the session's question.
func (t *Transport) handleAsk(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	id := t.sessions.Resolve(w, r)
	if err := r.ParseForm(); err != nil {
		t.render(w, r, svc, id, http.StatusBadRequest, page{Error: "Invalid form: " + err.Error()})
		return
	}

	text := r.PostFormValue("question")
	lang := message.Resolve(r.PostFormValue("language"))
	t.sessions.Update(id, func(s *session.State) {
		s.QueryText = text
		s.Language = lang
	})

	if strings.TrimSpace(text) == "" {
		t.render(w, r, svc, id, http.StatusOK, page{Warning: emptyQueryWarning})
		return
	}

	source := message.SourceTyped
	if st := t.sessions.Get(id); st.Recognized != "" && st.Recognized == text {
		source = message.SourceTranscribed
	}

	res, err := svc.Ask(r.Context(), message.Query{Text: text, Source: source, Language: lang})
	t.sessions.Update(id, func(s *session.State) { s.LastResult = formResult(res) })
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuery) {
			t.render(w, r, svc, id, http.StatusOK, page{Warning: emptyQueryWarning})
			return
		}
		if errors.Is(err, pipeline.ErrInvalidText) {
			t.render(w, r, svc, id, http.StatusBadRequest, page{Error: invalidTextError})
			return
		}
		slog.Error("ask failed", "error", err)
		t.render(w, r, svc, id, http.StatusInternalServerError, page{Error: err.Error()})
		return
	}
	t.render(w, r, svc, id, http.StatusOK, page{})
}

// formResult is the copy of res kept in the session. The form links to
// /audio instead of embedding the clip, so the base64 audio is dropped.
func formResult(res *message.AskResult) *message.AskResult {
	if res == nil {
		return nil
	}
	kept := *res
	kept.Audio = ""
	return &kept
}

// handleAudio streams the session's last synthesized answer.
func (t *Transport) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := t.sessions.Resolve(w, r)
	st := t.sessions.Get(id)
	if st.LastResult == nil || st.LastResult.AudioPath == "" {
		http.Error(w, "no audio yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", tts.ContentTypeFromExt(filepath.Ext(st.LastResult.AudioPath)))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, st.LastResult.AudioPath)
}
