package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/session"
)

const viewerCookie = "viewer_id"

// action is one viewer operation, shaped like the Session method expressions
type action func(s *session.Session, ctx context.Context) (session.View, error)

func selectNext(s *session.Session, _ context.Context) (session.View, error) {
	return s.SelectNext(), nil
}

func selectPrevious(s *session.Session, _ context.Context) (session.View, error) {
	return s.SelectPrevious(), nil
}

func selectRandom(s *session.Session, _ context.Context) (session.View, error) {
	return s.SelectRandom(), nil
}

// viewerID reads the viewer cookie, issuing a new id when it is missing or malformed
func (h *Handler) viewerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(viewerCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.container.Config().Session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sessionFor returns the session of the requesting viewer
func (h *Handler) sessionFor(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span) (string, *session.Session, bool, error) {
	id := h.viewerID(w, r)
	span.SetAttributes(attribute.String("viewer.id", id))

	s, fresh, err := h.registry.Get(ctx, id)
	if err != nil {
		return id, nil, false, err
	}
	span.SetAttributes(attribute.Bool("viewer.fresh", fresh))
	return id, s, fresh, nil
}

func (h *Handler) persist(ctx context.Context, id string, s *session.Session) {
	if err := h.registry.Persist(ctx, id, s); err != nil {
		h.logger.Warn(ctx).Err(err).Str("viewer_id", id).Msg("Failed to persist session")
	}
}

// indexHandler renders the full page. Every page load runs the startup chain
// so that settings changed elsewhere are picked up.
func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "IndexHandler", attribute.String("handler", "index"))
	defer h.endSpan(span)

	id, s, fresh, err := h.sessionFor(ctx, w, r, span)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to load session")
		h.renderTemplate(w, r, "page", pageData{Pane: paneData{View: session.View{Index: -1}, Error: err.Error()}})
		return
	}

	view, err := s.Start(ctx)
	h.persist(ctx, id, s)

	data := pageData{Pane: paneData{View: view}}
	if err != nil {
		h.handleError(ctx, span, err, "Failed to start viewer")
		data.Pane.Error = errorMessage(err)
		data.Pane.Notice = gallery.IsExpected(err)
	}

	h.logger.Debug(ctx).
		Str("viewer_id", id).
		Bool("fresh", fresh).
		Int("images", view.Count).
		Msg("Viewer page rendered")

	h.renderTemplate(w, r, "page", data)
}

// actionHandler runs op on the viewer's session and re-renders the pane. A
// viewer unknown to memory and to the store gets the startup chain instead,
// since there is no drawn image the action could refer to.
func (h *Handler) actionHandler(name string, op action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.startSpan(r.Context(), "ViewerActionHandler",
			attribute.String("handler", "viewer_action"),
			attribute.String("viewer.action", name),
		)
		defer h.endSpan(span)

		h.runAction(ctx, w, r, span, name, op)
	}
}

func (h *Handler) runAction(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, name string, op action) {
	id, s, fresh, err := h.sessionFor(ctx, w, r, span)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to load session")
		h.renderError(w, r, session.View{Index: -1}, err)
		return
	}

	var view session.View
	if fresh {
		view, err = s.Start(ctx)
	} else {
		view, err = op(s, ctx)
	}
	h.persist(ctx, id, s)

	if err != nil {
		h.handleError(ctx, span, err, "Viewer action failed")
		h.renderError(w, r, view, err)
		return
	}

	if view.Image != nil {
		span.SetAttributes(
			attribute.String("image.name", view.Image.Name),
			attribute.Int("image.position", view.Position()),
		)
	}
	span.SetAttributes(attribute.Int("images.count", view.Count))

	h.logger.Debug(ctx).
		Str("viewer_id", id).
		Str("action", name).
		Int("position", view.Position()).
		Int("count", view.Count).
		Msg("Viewer action applied")

	h.renderView(w, r, view)
}

// deleteHandler deletes the drawn image once the request carries confirm=yes
func (h *Handler) deleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "ViewerActionHandler",
		attribute.String("handler", "viewer_action"),
		attribute.String("viewer.action", "delete"),
	)
	defer h.endSpan(span)

	if r.FormValue("confirm") != "yes" {
		_, s, _, err := h.sessionFor(ctx, w, r, span)
		view := session.View{Index: -1}
		if err == nil {
			view = s.Current()
		}
		h.handleError(ctx, span, errConfirmationRequired, "Delete rejected")
		h.renderError(w, r, view, errConfirmationRequired)
		return
	}

	h.runAction(ctx, w, r, span, "delete", (*session.Session).DeleteCurrent)
}

// stateHandler returns the current view as JSON without changing anything
func (h *Handler) stateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "StateHandler", attribute.String("handler", "state"))
	defer h.endSpan(span)

	_, s, _, err := h.sessionFor(ctx, w, r, span)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to load session")
		h.renderJSON(w, r, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	h.renderJSON(w, r, http.StatusOK, s.Current())
}
