package http

import (
	"errors"
	"net/http"

	"shoplist/internal/core"
	applog "shoplist/internal/log"
)

type itemsResponse struct {
	Items []core.Item `json:"items"`
	Count int         `json:"count"`
}

// handleListItems serves the filtered, sorted view with an optional
// transient search term in ?q=.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items := core.Search(s.store.FilteredItems(), r.URL.Query().Get("q"))
	NewJSONResponse().Payload(itemsResponse{Items: items, Count: len(items)}).Write(w)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	item, err := s.store.AddItem(req.draft())
	if err != nil {
		s.writeStoreError(w, r, applog.OpAddItem, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/items/"+item.ID).
		Payload(item).
		Write(w)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateItem(id, req.patch()); err != nil {
		s.writeStoreError(w, r, applog.OpUpdateItem, err)
		return
	}
	s.writeItem(w, id)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteItem(r.PathValue("id"))
	NoContent().Write(w)
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.store.TogglePurchased(id)
	s.writeItem(w, id)
}

// handleClearItems removes purchased items with ?purchased=true and every
// item otherwise.
func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	var removed int
	if r.URL.Query().Get("purchased") == "true" {
		removed = s.store.ClearPurchased()
	} else {
		removed = s.store.ClearAll()
	}
	NewJSONResponse().Payload(map[string]int{"removed": removed}).Write(w)
}

// writeItem answers with the current state of the item. The store treats
// unknown ids as a no-op; the API reports them as 404.
func (s *Server) writeItem(w http.ResponseWriter, id string) {
	for _, it := range s.store.Items() {
		if it.ID == id {
			NewJSONResponse().Payload(it).Write(w)
			return
		}
	}
	ErrorResponse(http.StatusNotFound, "item not found").Write(w)
}

// writeStoreError maps store errors to responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fields core.FieldErrors
	switch {
	case errors.As(err, &fields):
		ValidationError(fields).Write(w)
	case errors.Is(err, core.ErrEmptyCategory):
		UnprocessableEntityError("category name is required").Write(w)
	case errors.Is(err, core.ErrDuplicateCategory):
		ConflictError("category already exists").Write(w)
	default:
		ctx := r.Context()
		applog.FromContext(ctx).ErrorContext(ctx, "Store operation failed",
			applog.FieldOperation, op, applog.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}
