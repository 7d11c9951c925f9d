package admission

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/errcode"
)

// handleYank implements POST /v1/yank/{ns}/{name}/{version}, the one
// administrative action the version lifecycle allows (spec §3 "yank is
// one-way"): the caller's bearer token must resolve to the namespace
// named in the path, same as publish.
func (app *App) handleYank(w http.ResponseWriter, r *http.Request) {
	key, err := app.resolveBearer(r.Context(), r)
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrUnauthorized.WithMessage("%s", err))
		return
	}

	vars := mux.Vars(r)
	ns, name, version := vars["ns"], vars["name"], vars["version"]
	if ns != key.Slug {
		errcode.ServeJSON(w, errcode.ErrNamespaceMismatch)
		return
	}

	err = app.DB.YankVersion(r.Context(), key.NamespaceID, name, version)
	if errors.Is(err, datastore.ErrNotFound) {
		errcode.ServeJSON(w, errcode.ErrNotFound)
		return
	}
	if err != nil {
		errcode.ServeJSON(w, errcode.ErrInternal.WithMessage("%s", err))
		return
	}

	if app.Cache != nil {
		app.Cache.Invalidate(r.Context(), ns, name, version)
	}

	w.WriteHeader(http.StatusNoContent)
}
