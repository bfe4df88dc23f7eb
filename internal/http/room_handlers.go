package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tanmaysrivastava45/Code-Sense/internal/store"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
)

// RoomsAPI manages durable room records. The live broker neither reads nor
// needs them: joining an id that has no record still works.
type RoomsAPI struct {
	DB RoomStore
}

type createRoomReq struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"isPublic"`
}

type roomDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}

func roomToDTO(m store.RoomMeta) roomDTO {
	return roomDTO{ID: m.ID, Name: m.Name, CreatorID: m.CreatorID, IsPublic: m.IsPublic, CreatedAt: m.CreatedAt}
}

// Create registers a named room owned by the caller.
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	m, err := a.DB.CreateRoomMeta(r.Context(), req.Name, auth.UserID(r.Context()), req.IsPublic)
	if err != nil {
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, roomToDTO(m))
}

// List returns the caller's rooms, newest first.
func (a *RoomsAPI) List(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.ListRoomMeta(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	out := make([]roomDTO, 0, len(list))
	for _, m := range list {
		out = append(out, roomToDTO(m))
	}
	writeJSON(w, out)
}

// Get fetches one room record.
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	m, err := a.DB.GetRoomMeta(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, roomToDTO(m))
}

// Delete removes a room record the caller owns.
func (a *RoomsAPI) Delete(w http.ResponseWriter, r *http.Request) {
	err := a.DB.DeleteRoomMeta(r.Context(), r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}
