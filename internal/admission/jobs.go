package admission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/errcode"
)

type jobResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// handleGetJob implements GET /v1/jobs/{id}. The result does not
// distinguish "not yet picked up" from "in stage N" — a status field
// alone, per the current schema.
func (app *App) handleGetJob(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := uuid.Parse(idStr)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}

	job, err := app.DB.GetJob(r.Context(), id)
	if errors.Is(err, datastore.ErrNotFound) {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, jobResponse{ID: job.ID.String(), Status: string(job.Status), Message: job.Message})
}
