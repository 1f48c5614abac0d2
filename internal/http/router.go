package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Sessions   *SessionHandler
	Leads      *LeadHandler
	Trainers   *TrainerHandler
	Tasks      *TaskHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Sessions != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.List(w, r)
			case http.MethodPost:
				cfg.Sessions.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/sessions/check-conflicts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Sessions.CheckConflicts(w, r)
		})
		mux.HandleFunc("/sessions/groups", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Sessions.Groups(w, r)
		})
		mux.HandleFunc("/sessions/groups/", func(w http.ResponseWriter, r *http.Request) {
			groupID := strings.TrimPrefix(r.URL.Path, "/sessions/groups/")
			if groupID == "" || strings.Contains(groupID, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithGroupID(r.Context(), groupID)
			cfg.Sessions.DeleteGroup(w, r.WithContext(ctx))
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}
			id, suffix, _ := strings.Cut(rest, "/")
			ctx := ContextWithSessionID(r.Context(), id)
			r = r.WithContext(ctx)
			switch suffix {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Sessions.Get(w, r)
				case http.MethodPatch:
					cfg.Sessions.Update(w, r)
				case http.MethodDelete:
					cfg.Sessions.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
				}
			case "status":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Sessions.UpdateStatus(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Leads != nil {
		mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Leads.List(w, r)
			case http.MethodPost:
				cfg.Leads.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/leads/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/leads/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}
			id, suffix, _ := strings.Cut(rest, "/")
			ctx := ContextWithLeadID(r.Context(), id)
			r = r.WithContext(ctx)
			switch suffix {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Leads.Get(w, r)
				case http.MethodPut:
					cfg.Leads.Update(w, r)
				case http.MethodDelete:
					cfg.Leads.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "convert":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Leads.Convert(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Trainers != nil {
		mux.HandleFunc("/trainers", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Trainers.List(w, r)
			case http.MethodPost:
				cfg.Trainers.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/trainers/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/trainers/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithTrainerID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Trainers.Get(w, r)
			case http.MethodPut:
				cfg.Trainers.Update(w, r)
			case http.MethodDelete:
				cfg.Trainers.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Tasks != nil {
		mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Tasks.List(w, r)
			case http.MethodPost:
				cfg.Tasks.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/tasks/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithTaskID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Tasks.Get(w, r)
			case http.MethodPatch:
				cfg.Tasks.Update(w, r)
			case http.MethodDelete:
				cfg.Tasks.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
