package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/application"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
	"github.com/dmehra2102/streetfood-connect/pkg/auth"
	"github.com/dmehra2102/streetfood-connect/pkg/idempotency"
)

type Handler struct {
	log      *slog.Logger
	service  *application.Service
	verifier *auth.Verifier
	idem     idempotency.Marker
	tracer   trace.Tracer
}

// NewHandler wires the group order routes. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewHandler(log *slog.Logger, service *application.Service, verifier *auth.Verifier, idem idempotency.Marker) *Handler {
	return &Handler{
		log:      log.With("component", "grouporder-http"),
		service:  service,
		verifier: verifier,
		idem:     idem,
		tracer:   otel.Tracer("grouporder-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		r.Use(h.verifier.RequireAuth(h.log))
		if h.idem != nil {
			r.Use(idempotency.Middleware(h.log, h.idem, func(r *http.Request) string {
				return auth.VendorID(r.Context())
			}))
		}
		r.Post("/", h.create)
		r.Get("/mine", h.listMine)
		r.Get("/{id}", h.get)
		r.Post("/{id}/join", h.join)
		r.Patch("/{id}/quantity", h.updateQuantity)
		r.Post("/{id}/close", h.close)
		r.Post("/{id}/cancel", h.cancel)
	})
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateGroupOrder")
	defer span.End()

	var req createReq
	if !h.decode(w, r, &req) {
		return
	}
	qty, err := quantity(req.Quantity)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.service.Create(ctx, application.CreateInput{
		ProductID: req.ProductID,
		Quantity:  qty,
		CallerID:  auth.VendorID(ctx),
	})
	if err != nil {
		h.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("group_order.id", o.ID))
	h.write(w, http.StatusCreated, toResp(o))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListMyGroupOrders")
	defer span.End()

	orders, err := h.service.ListMine(ctx, auth.VendorID(ctx))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	resp := make([]groupOrderResp, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toResp(o))
	}
	h.write(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "GetGroupOrder")
	defer span.End()

	o, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	h.write(w, http.StatusOK, toResp(o))
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "JoinGroupOrder")
	defer span.End()

	var req quantityReq
	if !h.decode(w, r, &req) {
		return
	}
	qty, err := quantity(req.Quantity)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.service.Join(ctx, application.JoinInput{
		GroupOrderID: chi.URLParam(r, "id"),
		Quantity:     qty,
		CallerID:     auth.VendorID(ctx),
	})
	h.respond(w, span, o, err)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "UpdateParticipantQuantity")
	defer span.End()

	var req quantityReq
	if !h.decode(w, r, &req) {
		return
	}
	qty, err := quantity(req.Quantity)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.service.UpdateQuantity(ctx, application.UpdateQuantityInput{
		GroupOrderID: chi.URLParam(r, "id"),
		Quantity:     qty,
		CallerID:     auth.VendorID(ctx),
	})
	h.respond(w, span, o, err)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "CloseGroupOrder")
	defer span.End()

	o, err := h.service.Close(ctx, application.CloseInput{
		GroupOrderID: chi.URLParam(r, "id"),
		CallerID:     auth.VendorID(ctx),
	})
	h.respond(w, span, o, err)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "CancelGroupOrder")
	defer span.End()

	o, err := h.service.Cancel(ctx, application.CancelInput{
		GroupOrderID: chi.URLParam(r, "id"),
		CallerID:     auth.VendorID(ctx),
	})
	h.respond(w, span, o, err)
}

func (h *Handler) start(r *http.Request, name string) (context.Context, trace.Span) {
	return h.tracer.Start(r.Context(), name, trace.WithAttributes(attribute.String("group_order.id", chi.URLParam(r, "id"))))
}

func (h *Handler) respond(w http.ResponseWriter, span trace.Span, o *domain.GroupOrder, err error) {
	if err != nil {
		h.fail(w, span, err)
		return
	}
	h.write(w, http.StatusOK, toResp(o))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.write(w, http.StatusBadRequest, errorResp{Error: "invalid_input", Message: "invalid body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, span trace.Span, err error) {
	status, resp := errorStatus(err)
	if status >= http.StatusInternalServerError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.log.Error("request failed", "err", err)
		resp.Message = "internal error"
	}
	if resp.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	h.write(w, status, resp)
}

func errorStatus(err error) (int, errorResp) {
	if errors.Is(err, application.ErrMissingField) {
		return http.StatusBadRequest, errorResp{Error: "invalid_input", Message: err.Error()}
	}
	kind := domain.KindOf(err)
	resp := errorResp{Error: string(kind), Message: err.Error(), Retryable: domain.Retryable(err)}
	switch kind {
	case domain.KindNotFound, domain.KindNotAParticipant:
		return http.StatusNotFound, resp
	case domain.KindInvalidQuantity:
		return http.StatusBadRequest, resp
	case domain.KindInvalidState, domain.KindConcurrentModification:
		return http.StatusConflict, resp
	case domain.KindForbidden:
		return http.StatusForbidden, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func (h *Handler) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encode response failed", "err", err)
	}
}
