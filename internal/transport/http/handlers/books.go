package http_handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/logger"
	"github.com/shelfshare/shelfshare/internal/transport/http/dto"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

const maxCoverBytes = 5 << 20 // 5 MiB

type BookHandler struct {
	svc *catalog.Service
}

func NewBookHandler(svc *catalog.Service) *BookHandler {
	return &BookHandler{svc: svc}
}

func pageFromQuery(r *http.Request) catalog.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return catalog.Page{Number: number, Size: size}
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
	}
	return id, ok
}

// ---- CRUD ----

func (h *BookHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.SaveBookRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	b, err := h.svc.SaveBook(r.Context(), uid, req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	if req.ID == "" {
		response.Created(w, dto.ToBookResponse(catalog.BookView{Book: b}))
		return
	}
	response.OK(w, dto.ToBookResponse(catalog.BookView{Book: b}))
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToBookResponse(v))
}

func (h *BookHandler) ListDisplayable(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListDisplayable(r.Context(), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToBookResponse))
}

func (h *BookHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListOwned(r.Context(), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToBookResponse))
}

// ---- Toggles ----

func (h *BookHandler) UpdateShareable(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	b, err := h.svc.UpdateShareable(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToBookResponse(catalog.BookView{Book: b}))
}

func (h *BookHandler) UpdateArchived(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	b, err := h.svc.UpdateArchived(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToBookResponse(catalog.BookView{Book: b}))
}

// ---- Lending ----

func (h *BookHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	loan, err := h.svc.Borrow(r.Context(), bookID, uid)
	if err != nil {
		middleware.LoanTransitionsTotal.WithLabelValues("borrow", "rejected").Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoanTransitionsTotal.WithLabelValues("borrow", "success").Inc()

	l := logger.WithCtx(r.Context())
	l.Info().
		Str("book_id", bookID).
		Str("loan_id", loan.ID).
		Msg("book_borrowed")

	response.OK(w, map[string]string{"loanId": loan.ID})
}

func (h *BookHandler) Return(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	loan, err := h.svc.Return(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		middleware.LoanTransitionsTotal.WithLabelValues("return", "rejected").Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoanTransitionsTotal.WithLabelValues("return", "success").Inc()

	response.OK(w, map[string]string{"loanId": loan.ID})
}

func (h *BookHandler) ApproveReturn(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	loan, err := h.svc.ApproveReturn(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		middleware.LoanTransitionsTotal.WithLabelValues("approve_return", "rejected").Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoanTransitionsTotal.WithLabelValues("approve_return", "success").Inc()

	response.OK(w, map[string]string{"loanId": loan.ID})
}

func (h *BookHandler) ListBorrowed(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListBorrowed(r.Context(), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToBorrowedBookResponse))
}

func (h *BookHandler) ListReturned(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListReturned(r.Context(), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToBorrowedBookResponse))
}

// ---- Reservations ----

func (h *BookHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Reserve(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, map[string]string{"reservationId": res.ID})
}

func (h *BookHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.CancelReservation(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *BookHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListReservations(r.Context(), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToReservationResponse))
}

// ---- Covers ----

func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		response.WriteError(w, r, domain.ErrInvalidField("file", "invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, r, domain.ErrMissingField("file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverBytes+1))
	if err != nil {
		response.WriteError(w, r, domain.ErrInvalidField("file", "unreadable upload"))
		return
	}
	if len(data) > maxCoverBytes {
		response.WriteError(w, r, domain.ErrInvalidField("file", "too large"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	if err := h.svc.UploadCover(r.Context(), chi.URLParam(r, "id"), uid, data, contentType); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.StatusResponse{Status: "cover_uploaded"})
}

func (h *BookHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.svc.GetCover(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if len(data) == 0 {
		response.NoContent(w)
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ---- Feedback ----

func (h *BookHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.FeedbackRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	fb, err := h.svc.SubmitFeedback(r.Context(), uid, catalog.FeedbackInput{
		BookID:  chi.URLParam(r, "id"),
		Note:    req.Note,
		Comment: req.Comment,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, map[string]string{"feedbackId": fb.ID})
}

func (h *BookHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListFeedback(r.Context(), chi.URLParam(r, "id"), uid, pageFromQuery(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToPageResponse(page, dto.ToFeedbackResponse))
}
