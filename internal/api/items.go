package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/erazemk/predal/internal/items"
	"github.com/erazemk/predal/internal/model"
)

var (
	errInvalidBody    = errors.New("invalid request body")
	errNegativeAmount = errors.New("amount must not be negative")
)

// ItemsHandler handles item and label endpoints.
type ItemsHandler struct {
	Store *items.Store
	Now   func() time.Time
}

// Search handles GET /api/items?q=&label=.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := h.Store.View().Search(items.Query{
		Keyword: q.Get("q"),
		Label:   q.Get("label"),
	})
	jsonResponse(w, http.StatusOK, result)
}

// Pending handles GET /api/items/pending.
func (h *ItemsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.View().PendingRemoval())
}

// Labels handles GET /api/labels.
func (h *ItemsHandler) Labels(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.View().LabelsWithTotal())
}

// New handles GET /api/items/new. The returned item is not stored.
func (h *ItemsHandler) New(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.newItem())
}

// Create handles POST /api/items. Fields missing from the body keep their
// defaults; id and dateAcquired are always assigned here.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	draft := model.NewItem(now)
	if err := decodeJSON(r, &draft); err != nil {
		jsonError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	if draft.Amount < 0 {
		jsonError(w, http.StatusBadRequest, errNegativeAmount.Error())
		return
	}

	item := h.Store.AddNew(func(taken func(string) bool) model.Item {
		fresh := freshItem(now, taken)
		draft.ID = fresh.ID
		draft.DateAcquired = fresh.DateAcquired
		return draft
	})
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Store.View().ByID(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. The body is applied over the stored
// item; the id always comes from the path.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}

	item, ok, err := h.Store.Modify(r.PathValue("id"), func(item *model.Item) error {
		if err := json.Unmarshal(body, item); err != nil {
			return errInvalidBody
		}
		if item.Amount < 0 {
			return errNegativeAmount
		}
		return nil
	})
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Discard handles POST /api/items/{id}/discard by labelling the item for removal.
func (h *ItemsHandler) Discard(w http.ResponseWriter, r *http.Request) {
	item, ok, _ := h.Store.Modify(r.PathValue("id"), func(item *model.Item) error {
		*item = item.MarkForRemoval(h.Now())
		return nil
	})
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.Store.View().ByID(id); !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	h.Store.Remove(id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item removed"})
}

// newItem returns a factory item whose id is not taken yet. Nothing is
// reserved: Create allocates again under the store lock.
func (h *ItemsHandler) newItem() model.Item {
	view := h.Store.View()
	return freshItem(h.Now(), func(id string) bool {
		_, ok := view.ByID(id)
		return ok
	})
}

// freshItem returns a factory item for now, moving forward a millisecond at a
// time while the id is taken.
func freshItem(now time.Time, taken func(id string) bool) model.Item {
	item := model.NewItem(now)
	for taken(item.ID) {
		now = now.Add(time.Millisecond)
		item = model.NewItem(now)
	}
	return item
}
