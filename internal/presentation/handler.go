package presentation

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RaikyD/lengow-mws-connector/internal/application"
	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/lengow"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
	"github.com/RaikyD/lengow-mws-connector/internal/mws"
	"github.com/RaikyD/lengow-mws-connector/internal/presentation/helpers"
)

// Service is what the admin api drives.
type Service interface {
	Run(ctx context.Context, w application.Window) (application.Report, error)
	Preview(ctx context.Context, o domain.Order) (*mws.Response, error)
	CancelAndConfirm(ctx context.Context, orderID string) (*mws.Response, error)
	LedgerIDs(ctx context.Context) ([]string, error)
}

type AdminHandler struct {
	svc         Service
	submissions *application.SubmissionLog
	now         func() time.Time
}

func NewAdminHandler(svc Service, submissions *application.SubmissionLog) *AdminHandler {
	if submissions == nil {
		submissions = application.NewSubmissionLog(0)
	}
	return &AdminHandler{svc: svc, submissions: submissions, now: time.Now}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/ledger", h.Ledger)
	r.Post("/runs", h.StartRun)
	r.Post("/orders/preview", h.PreviewOrder)
	r.Post("/orders/{orderID}/cancel", h.CancelOrder)
	r.Get("/submissions", h.RecentSubmissions)
	r.Get("/submissions/{orderID}", h.GetSubmission)
}

func (h *AdminHandler) Health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.LedgerIDs(r.Context())
	if err != nil {
		logger.Warn("ledger read failed", "err", err)
		helpers.HttpError(w, helpers.StatusFor(err), err.Error())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"count":     len(ids),
		"order_ids": ids,
	})
}

// StartRun runs a batch synchronously. start and end (YYYY-MM-DD) default to
// yesterday and today.
func (h *AdminHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	win := application.YesterdayToToday(h.now())
	for name, dst := range map[string]*time.Time{"start": &win.Start, "end": &win.End} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(lengow.DateLayout, v)
		if err != nil {
			helpers.HttpError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
			return
		}
		*dst = t
	}
	if win.End.Before(win.Start) {
		helpers.HttpError(w, http.StatusBadRequest, "end is before start")
		return
	}

	rep, err := h.svc.Run(r.Context(), win)
	if err != nil {
		logger.Warn("admin run failed", "run_id", rep.RunID, "err", err)
		helpers.WriteJSON(w, helpers.StatusFor(err), map[string]any{
			"error":  err.Error(),
			"report": rep,
		})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, rep)
}

// PreviewOrder takes one feed order, as in the feed's "orders" array:
//   - application/json:    the body is the order
//   - text/plain:          the body is a string holding the JSON
//   - multipart/form-data: the order is the JSON file in field "file"
func (h *AdminHandler) PreviewOrder(w http.ResponseWriter, r *http.Request) {
	ord, status, err := readOrder(r)
	if err != nil {
		helpers.HttpError(w, status, err.Error())
		return
	}
	if strings.TrimSpace(ord.OrderID.String()) == "" {
		helpers.HttpError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	resp, err := h.svc.Preview(r.Context(), ord)
	if err != nil {
		helpers.HttpError(w, helpers.StatusFor(err), err.Error())
		return
	}
	writeMWS(w, resp)
}

func (h *AdminHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	if strings.TrimSpace(id) == "" {
		helpers.HttpError(w, http.StatusBadRequest, "order id is empty")
		return
	}

	resp, err := h.svc.CancelAndConfirm(r.Context(), id)
	if err != nil {
		logger.Warn("cancel failed", "order_id", id, "err", err)
		helpers.HttpError(w, helpers.StatusFor(err), err.Error())
		return
	}
	writeMWS(w, resp)
}

func (h *AdminHandler) RecentSubmissions(w http.ResponseWriter, r *http.Request) {
	n := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 && v <= 1000 {
			n = v
		}
	}
	helpers.WriteJSON(w, http.StatusOK, h.submissions.Recent(n))
}

func (h *AdminHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.submissions.Get(chi.URLParam(r, "orderID"))
	if !ok {
		helpers.HttpError(w, http.StatusNotFound, "submission not found")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ev)
}

func readOrder(r *http.Request) (domain.Order, int, error) {
	mediatype, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var ord domain.Order
	var readErr error

	switch mediatype {
	case "application/json":
		readErr = helpers.DecodeJSON(io.LimitReader(r.Body, 2<<20), &ord)

	case "text/plain":
		raw, err := io.ReadAll(io.LimitReader(r.Body, 2<<20))
		if err != nil {
			readErr = err
			break
		}
		readErr = json.Unmarshal(raw, &ord)

	case "multipart/form-data":
		mr := multipart.NewReader(r.Body, params["boundary"])
		found := false
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				readErr = err
				break
			}
			if part.FormName() != "file" {
				continue
			}
			found = true
			readErr = helpers.DecodeJSON(bufio.NewReader(io.LimitReader(part, 2<<20)), &ord)
			_ = part.Close()
			break
		}
		if readErr == nil && !found {
			return ord, http.StatusBadRequest, errMissingFile
		}

	default:
		return ord, http.StatusUnsupportedMediaType, errMediaType
	}

	if readErr != nil {
		return ord, http.StatusBadRequest, &badJSON{readErr}
	}
	return ord, http.StatusOK, nil
}

type adminError string

func (e adminError) Error() string { return string(e) }

const (
	errMissingFile adminError = `multipart body has no "file" field`
	errMediaType   adminError = "unsupported content-type"
)

type badJSON struct{ err error }

func (e *badJSON) Error() string { return "invalid JSON: " + e.err.Error() }
func (e *badJSON) Unwrap() error { return e.err }

func writeMWS(w http.ResponseWriter, resp *mws.Response) {
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     resp.StatusCode,
		"request_id": resp.RequestID,
		"body":       string(resp.Body),
	})
}
