package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/Teek0505/TransMedix/internal/config"
	"github.com/Teek0505/TransMedix/internal/ports/speech"
	"github.com/Teek0505/TransMedix/internal/router"
)

type fakeRecognizer struct {
	text string
	fail bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, audio []byte, p speech.Params) (speech.Result, error) {
	if f.fail {
		return speech.Result{}, errors.New("provider down")
	}
	return speech.Result{
		Text:       f.text,
		Confidence: 0.93,
		Segments: []speech.Segment{
			{Speaker: "doctor", Start: 0, End: 2.5, Text: f.text},
		},
	}, nil
}

func (f *fakeRecognizer) OpenStream(ctx context.Context, p speech.Params, onPartial func(speech.Partial)) (speech.Stream, error) {
	return nil, errors.New("streaming not supported in tests")
}

type fakeGenerator struct{}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "JSON array") {
		return `Here are the questions:
` + "```json" + `
["Did the patient report any allergies?", "How long has the cough lasted?", "Was blood pressure measured?"]
` + "```", nil
	}
	return "```json\n" + `{
  "chief_complaint": "persistent cough",
  "history": "two weeks of dry cough, no fever",
  "assessment": "likely viral bronchitis",
  "plan": "rest, fluids, follow up in one week",
  "symptoms": ["cough", "fatigue"],
  "conditions": ["bronchitis"],
  "medications": ["dextromethorphan"]
}` + "\n```", nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func newTestApp(t *testing.T) *router.App {
	t.Helper()

	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}

	return router.Build(router.Options{
		Cfg:        cfg,
		Recognizer: &fakeRecognizer{text: "patient reports a persistent cough for two weeks"},
		Generator:  &fakeGenerator{},
	})
}

func TestHTTP_EndToEnd_ConsultationFlow(t *testing.T) {
	app := newTestApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	doctorID := "doctor-1"

	// 1) Sin usuario => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/sessions", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", st)
		}
	}

	// 2) Paciente sin nombre => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/patients", doctorID, map[string]any{
			"document_number": "12345678",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 patient without name, got %d", st)
		}
	}

	// 3) Crear paciente
	patientID := createJSON(t, ts.URL, doctorID, "/patients", map[string]any{
		"full_name":       "Ana Torres",
		"document_number": "12345678",
		"sex":             "female",
	})

	// 4) Sesión sin doctor_name => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/sessions", doctorID, map[string]any{
			"patient_id": patientID,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 session without doctor name, got %d", st)
		}
	}

	// 5) Crear sesión => scheduled, idioma por default
	var sessionID string
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions", doctorID, map[string]any{
			"patient_id":  patientID,
			"doctor_name": "Dr. Perez",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create session, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Language string `json:"language"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Status != "scheduled" {
			t.Fatalf("unexpected session create body=%s", string(body))
		}
		if resp.Language != "en" {
			t.Fatalf("expected default language en, got %q", resp.Language)
		}
		sessionID = resp.ID
	}

	// 6) Start => in_progress
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/start", doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 start session, got %d body=%s", st, string(body))
		}
	}

	// 7) Upload no-audio => 400
	{
		st, body := uploadFile(t, ts.URL, doctorID, sessionID, "notes.txt", "text/plain", []byte("not audio"))
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 non-audio upload, got %d body=%s", st, string(body))
		}
	}

	// 8) Upload audio => 202 processing
	var transcriptionID string
	{
		st, body := uploadFile(t, ts.URL, doctorID, sessionID, "consult.webm", "audio/webm", []byte("fake-audio-bytes"))
		if st != http.StatusAccepted {
			t.Fatalf("expected 202 audio upload, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Status != "processing" {
			t.Fatalf("unexpected upload body=%s", string(body))
		}
		transcriptionID = resp.ID
	}

	// 9) El job asíncrono completa la transcripción
	app.Transcriptions.Wait()
	{
		st, body := doReq(t, ts.URL, "GET", "/transcriptions/"+transcriptionID, doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get transcription, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status   string `json:"status"`
			Text     string `json:"text"`
			Segments []any  `json:"segments"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "completed" || resp.Text == "" || len(resp.Segments) == 0 {
			t.Fatalf("expected completed transcription with text, body=%s", string(body))
		}
	}

	// 10) La sesión referencia a la transcripción
	{
		st, body := doReq(t, ts.URL, "GET", "/sessions/"+sessionID, doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get session, got %d", st)
		}
		var resp struct {
			TranscriptionIDs []string `json:"transcription_ids"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.TranscriptionIDs) != 1 || resp.TranscriptionIDs[0] != transcriptionID {
			t.Fatalf("expected session to reference transcription, body=%s", string(body))
		}
	}

	// 11) Edición manual guarda el texto anterior
	{
		st, body := doReq(t, ts.URL, "PATCH", "/transcriptions/"+transcriptionID, doctorID, map[string]any{
			"text": "patient reports a persistent cough for three weeks",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 edit transcription, got %d body=%s", st, string(body))
		}
		var resp struct {
			Text  string `json:"text"`
			Edits []struct {
				PreviousText string `json:"previous_text"`
				EditedBy     string `json:"edited_by"`
			} `json:"edits"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Edits) != 1 || resp.Edits[0].PreviousText == "" || resp.Edits[0].EditedBy != doctorID {
			t.Fatalf("expected edit history entry, body=%s", string(body))
		}
	}

	// 12) Generar summary => 202 processing
	var summaryID string
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/summary", doctorID, nil)
		if st != http.StatusAccepted {
			t.Fatalf("expected 202 generate summary, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Status != "processing" {
			t.Fatalf("unexpected summary body=%s", string(body))
		}
		summaryID = resp.ID
	}

	// 13) El job completa con secciones y entidades extraídas del JSON
	app.Summaries.Wait()
	{
		st, body := doReq(t, ts.URL, "GET", "/sessions/"+sessionID+"/summary", doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get summary, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status   string `json:"status"`
			Model    string `json:"model"`
			Version  int    `json:"version"`
			Sections struct {
				ChiefComplaint string `json:"chief_complaint"`
				Plan           string `json:"plan"`
			} `json:"sections"`
			Entities struct {
				Symptoms []string `json:"symptoms"`
			} `json:"entities"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "completed" || resp.Version != 1 {
			t.Fatalf("expected completed summary v1, body=%s", string(body))
		}
		if resp.Sections.ChiefComplaint != "persistent cough" || resp.Sections.Plan == "" {
			t.Fatalf("expected extracted sections, body=%s", string(body))
		}
		if len(resp.Entities.Symptoms) != 2 {
			t.Fatalf("expected extracted symptoms, body=%s", string(body))
		}
		if resp.Model != "fake-model" {
			t.Fatalf("expected model recorded, body=%s", string(body))
		}
	}

	// 14) Repetir sin regenerate devuelve el existente (200, mismo id)
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/summary", doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 existing summary, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID != summaryID {
			t.Fatalf("expected same summary id %s, got %s", summaryID, resp.ID)
		}
	}

	// 15) Regenerar guarda la versión anterior en el historial
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/summary?regenerate=true", doctorID, nil)
		if st != http.StatusAccepted {
			t.Fatalf("expected 202 regenerate, got %d body=%s", st, string(body))
		}
	}
	app.Summaries.Wait()
	{
		_, body := doReq(t, ts.URL, "GET", "/sessions/"+sessionID+"/summary", doctorID, nil)
		var resp struct {
			Version  int   `json:"version"`
			Versions []any `json:"versions"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Version != 2 || len(resp.Versions) != 1 {
			t.Fatalf("expected v2 with one archived version, body=%s", string(body))
		}
	}

	// 16) Preguntas reflexivas => 202, luego quedan en el summary
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/questions", doctorID, nil)
		if st != http.StatusAccepted {
			t.Fatalf("expected 202 questions, got %d body=%s", st, string(body))
		}
	}
	app.Summaries.Wait()
	{
		_, body := doReq(t, ts.URL, "GET", "/sessions/"+sessionID+"/summary", doctorID, nil)
		var resp struct {
			ReflexiveQuestions []string `json:"reflexive_questions"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.ReflexiveQuestions) != 3 {
			t.Fatalf("expected 3 reflexive questions, body=%s", string(body))
		}
	}

	// 17) End => completed; terminar de nuevo => 400
	{
		st, body := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/end", doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 end session, got %d body=%s", st, string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/end", doctorID, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 ending a completed session, got %d", st)
		}
	}

	// 18) Subir audio a sesión cerrada => 400
	{
		st, _ := uploadFile(t, ts.URL, doctorID, sessionID, "late.webm", "audio/webm", []byte("x"))
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 upload to closed session, got %d", st)
		}
	}

	// 19) DELETE cascada: se van transcripciones y summary
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/sessions/"+sessionID, doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 delete session, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/transcriptions/"+transcriptionID, doctorID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 transcription after cascade, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/sessions/"+sessionID, doctorID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 session after delete, got %d", st)
		}
	}
}

func TestHTTP_TranscriptionFailureIsRecorded(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	app := router.Build(router.Options{
		Cfg:        cfg,
		Recognizer: &fakeRecognizer{fail: true},
		Generator:  &fakeGenerator{},
	})
	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	doctorID := "doctor-1"
	patientID := createJSON(t, ts.URL, doctorID, "/patients", map[string]any{"full_name": "Luis Vega"})
	sessionID := createJSON(t, ts.URL, doctorID, "/sessions", map[string]any{
		"patient_id":  patientID,
		"doctor_name": "Dr. Perez",
	})

	st, body := uploadFile(t, ts.URL, doctorID, sessionID, "a.webm", "audio/webm", []byte("audio"))
	if st != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", st, string(body))
	}
	var up struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &up)

	app.Transcriptions.Wait()

	st, body = doReq(t, ts.URL, "GET", "/transcriptions/"+up.ID, doctorID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Status != "failed" || resp.Error == "" {
		t.Fatalf("expected failed transcription with error, body=%s", string(body))
	}

	// Sin texto transcrito, el summary se rechaza con 400
	st, _ = doReq(t, ts.URL, "POST", "/sessions/"+sessionID+"/summary", doctorID, nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 summary without transcript, got %d", st)
	}
}

func TestHTTP_ReferenceSearch(t *testing.T) {
	app := newTestApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	// Sin q => 400
	{
		st, _ := doReq(t, ts.URL, "GET", "/conditions", "", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 without q, got %d", st)
		}
	}

	// Búsqueda case-insensitive sobre el catálogo sembrado
	{
		st, body := doReq(t, ts.URL, "GET", "/conditions?q=DIAB", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 conditions, got %d", st)
		}
		var items []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) == 0 {
			t.Fatalf("expected seeded conditions for q=DIAB, body=%s", string(body))
		}
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/symptoms?q=head", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 symptoms, got %d", st)
		}
		var items []struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) == 0 {
			t.Fatalf("expected seeded symptoms for q=head, body=%s", string(body))
		}
	}
}

func createJSON(t *testing.T, baseURL, userID, path string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s: missing id body=%s", path, string(body))
	}
	return resp.ID
}

func uploadFile(t *testing.T, baseURL, userID, sessionID, filename, contentType string, data []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write multipart part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest("POST", baseURL+"/sessions/"+sessionID+"/transcriptions", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Debug-User-ID", userID)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, body
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
